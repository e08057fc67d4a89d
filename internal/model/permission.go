package model

// Permissions is the capability set a user holds over an SCM resource.
// Only Admin gates token rotation; Push and Pull are carried for callers that
// need them.
type Permissions struct {
	Admin bool `json:"admin"`
	Push  bool `json:"push"`
	Pull  bool `json:"pull"`
}
