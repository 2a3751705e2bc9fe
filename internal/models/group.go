package models

// GroupInfo is the metadata record stored per group in the registry hash.
type GroupInfo struct {
	Owner      string `json:"owner"`
	TotalUsers int    `json:"totalUsers"`
	// Online is never updated by any operation and always reads 0.
	Online int `json:"online"`
}

// NewGroupInfo returns the metadata of a freshly created group. The creator
// counts as its first user.
func NewGroupInfo(owner string) GroupInfo {
	return GroupInfo{Owner: owner, TotalUsers: 1, Online: 0}
}
