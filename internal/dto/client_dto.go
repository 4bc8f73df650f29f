package dto

type ClientRequest struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName"  validate:"required,min=1,max=100"`
	Email     string `json:"email"     validate:"omitempty,email"`
	Phone     string `json:"phone"     validate:"max=40"`
}

type ClientResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type ClientFilter struct {
	Search string `form:"search"`
	PageQuery
}

type VehicleRequest struct {
	LicensePlate string  `json:"licensePlate" validate:"required,min=2,max=20"`
	Brand        string  `json:"brand"        validate:"required,max=60"`
	Model        string  `json:"model"        validate:"required,max=60"`
	ModelYear    int     `json:"modelYear"    validate:"omitempty,gte=1900,lte=2100"`
	ClientID     *string `json:"clientId"     validate:"omitempty,uuid"`
}

type VehicleResponse struct {
	LicensePlate string  `json:"licensePlate"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	ModelYear    int     `json:"modelYear"`
	ClientID     *string `json:"clientId"`
}

type VehicleFilter struct {
	Search   string `form:"search"`
	ClientID string `form:"clientId"`
	PageQuery
}
