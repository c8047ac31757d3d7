package mypatients

// Pagination is the page metadata of list endpoints.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// Paginated is the envelope of paginated list endpoints.
type Paginated[T any] struct {
	Data       []T        `json:"paginated_data"`
	Pagination Pagination `json:"pagination"`
}

// Success is the body of simple writes.
type Success struct {
	Success bool `json:"success"`
}

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterParams struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type CheckAccessKeyParams struct {
	UserEmail string `json:"user_email"`
	AccessKey string `json:"access_key"`
}

type ForgotParams struct {
	Email string `json:"email"`
}

type ResetParams struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and access key verification.
type AuthResponse struct {
	Token      string `json:"token"`
	PID        string `json:"pid"`
	Name       string `json:"name"`
	IsVerified bool   `json:"is_verified"`
}

// CurrentUser is the authenticated practitioner.
type CurrentUser struct {
	PID                 string               `json:"pid"`
	Name                string               `json:"name"`
	Email               string               `json:"email"`
	BusinessInformation *BusinessInformation `json:"business_information"`
}

type BusinessInformation struct {
	RPPSNumber        string  `json:"rpps_number"`
	SiretNumber       string  `json:"siret_number"`
	AdeliNumber       *string `json:"adeli_number"`
	SignatureFilename *string `json:"signature_filename"`
	Profession        string  `json:"profession"`
}

type SaveBusinessInformationParams struct {
	RPPSNumber  string `json:"rpps_number"`
	SiretNumber string `json:"siret_number"`
	AdeliNumber string `json:"adeli_number,omitempty"`
	Profession  string `json:"profession"`
}

type Patient struct {
	ID             int64   `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	SSN            string  `json:"ssn"`
	AddressLine1   string  `json:"address_line_1"`
	AddressZipCode string  `json:"address_zip_code"`
	AddressCity    string  `json:"address_city"`
	AddressCountry string  `json:"address_country"`
	Office         *string `json:"office"`
}

// PatientParams is the body of patient create and update.
type PatientParams struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	SSN            string `json:"ssn"`
	AddressLine1   string `json:"address_line_1"`
	AddressZipCode string `json:"address_zip_code"`
	AddressCity    string `json:"address_city"`
	Email          string `json:"email,omitempty"`
}

type SearchParams struct {
	Q    string `url:"q"`
	Page int    `url:"page,omitempty"`
}

type SSNSearchParams struct {
	SSN string `url:"ssn"`
}

type GenerateInvoiceParams struct {
	Amount               float64 `json:"amount"`
	InvoiceDate          string  `json:"invoice_date"`
	ShouldBeSentByEmail  bool    `json:"should_be_sent_by_email"`
	PractitionerOfficeID int64   `json:"practitioner_office_id"`
}

// GeneratedInvoice carries the PDF as base64; see DecodeInvoice.
type GeneratedInvoice struct {
	PDFData  string `json:"pdf_data"`
	Filename string `json:"filename"`
}

// Invoice is a decoded invoice document.
type Invoice struct {
	Filename string
	PDF      []byte
}

type Office struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	AddressLine1   string `json:"address_line_1"`
	AddressZipCode string `json:"address_zip_code"`
	AddressCity    string `json:"address_city"`
}

type OfficeParams struct {
	Name           string `json:"name"`
	AddressLine1   string `json:"address_line_1"`
	AddressZipCode string `json:"address_zip_code"`
	AddressCity    string `json:"address_city"`
}

type Appointment struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	PriceInCents int64  `json:"price_in_cents"`
	Office       Office `json:"office"`
}

type AppointmentParams struct {
	Date                 string `json:"date"`
	PractitionerOfficeID int64  `json:"practitioner_office_id"`
	PriceInCents         int64  `json:"price_in_cents"`
}
