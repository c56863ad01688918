package models

// Cluster is a derived grouping of nearby incidents. Clusters are recomputed
// from scratch each clustering pass and carry no identity across passes.
type Cluster struct {
	Center    Coordinates `json:"center"`
	Incidents []string    `json:"incidents"`
	Size      int         `json:"size"`
}
