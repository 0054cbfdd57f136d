package entity

// User identity is self-asserted at login: the id and name come from the
// client and live only as long as the owning connection.
type User struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
