package domain

// Group is an approver group that can be attached to tickets.
type Group struct {
	GroupID   int    `json:"group_id"`
	GroupName string `json:"group_name"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
}

// SqlInstance is a SQL server instance that can be attached to tickets.
type SqlInstance struct {
	SqlInstanceID int    `json:"sql_instance_id"`
	InstanceName  string `json:"instance_name"`
	Environment   string `json:"environment"`
	IsActive      bool   `json:"is_active"`
}
