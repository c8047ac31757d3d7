package mypatients

import "github.com/wolfman30/mypatients/internal/endpoint"

// Path parameter names.
const (
	PatientIDParam     = "patient_id"
	AppointmentIDParam = "appointment_id"
	OfficeIDParam      = "office_id"
)

type none = struct{}

// Auth
var (
	Login          = endpoint.Post[LoginParams, AuthResponse]("/auth/login")
	Register       = endpoint.Post[RegisterParams, none]("/auth/register")
	Me             = endpoint.Get[none, CurrentUser]("/auth/me")
	CheckAccessKey = endpoint.Post[CheckAccessKeyParams, AuthResponse]("/auth/_check_access_key")
	Forgot         = endpoint.Post[ForgotParams, none]("/auth/forgot")
	Reset          = endpoint.Post[ResetParams, none]("/auth/reset")
)

// Patients
var (
	CreatePatient   = endpoint.Post[PatientParams, Success]("/patient/create")
	GetPatient      = endpoint.Get[none, Patient]("/patient/{patient_id}")
	UpdatePatient   = endpoint.Put[PatientParams, Success]("/patient/{patient_id}")
	DeletePatient   = endpoint.Delete[none, Success]("/patient/{patient_id}")
	SearchPatients  = endpoint.Get[SearchParams, Paginated[Patient]]("/patient/_search")
	SearchBySSN     = endpoint.Get[SSNSearchParams, []Patient]("/patient/_search_by_ssn")
	GenerateInvoice = endpoint.Post[GenerateInvoiceParams, GeneratedInvoice]("/patient/{patient_id}/_generate_invoice")
)

// Medical appointments
var (
	ListAppointments  = endpoint.Get[none, []Appointment]("/patient/{patient_id}/medical_appointments")
	CreateAppointment = endpoint.Post[AppointmentParams, none]("/patient/{patient_id}/medical_appointments")
	UpdateAppointment = endpoint.Put[AppointmentParams, Success]("/patient/{patient_id}/medical_appointments/{appointment_id}")
	DeleteAppointment = endpoint.Delete[none, Success]("/patient/{patient_id}/medical_appointments/{appointment_id}")
)

// Practitioner offices
var (
	CreateOffice = endpoint.Post[OfficeParams, Success]("/practitioner_office/create")
	UpdateOffice = endpoint.Put[OfficeParams, Success]("/practitioner_office/{office_id}")
	DeleteOffice = endpoint.Delete[none, Success]("/practitioner_office/{office_id}")
)

// User
var (
	MyOffices               = endpoint.Get[none, []Office]("/user/my_offices")
	SaveBusinessInformation = endpoint.Post[SaveBusinessInformationParams, Success]("/user/_save_business_information")
	SignatureURL            = endpoint.Get[none, endpoint.Text]("/user/signature")
	UploadSignature         = endpoint.Multipart[*SignatureUpload, none]("/user/signature/_upload")
)
