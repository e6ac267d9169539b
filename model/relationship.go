package model

// Relationship is a named route a processor sends FlowFiles to.
type Relationship struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var Success = Relationship{
	Name:        "success",
	Description: "FlowFiles are routed to this relationship on success.",
}

var Failure = Relationship{
	Name:        "failure",
	Description: "FlowFiles are routed to this relationship on failure.",
}

func (r Relationship) String() string {
	return r.Name
}
