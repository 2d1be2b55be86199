package model

import (
	"context"
	"io"
)

// Field keys used in FieldErrors and in the JSON form payload.
const (
	FieldCompanyName   = "companyName"
	FieldIndustry      = "industry"
	FieldBuyerPersona  = "buyerPersona"
	FieldMainPainPoint = "mainPainPoint"
	FieldUseCase       = "useCase"
)

// FieldKeys lists the text fields in form order.
var FieldKeys = []string{
	FieldCompanyName,
	FieldIndustry,
	FieldBuyerPersona,
	FieldMainPainPoint,
	FieldUseCase,
}

type FormFields struct {
	CompanyName   string `json:"companyName" yaml:"companyName" validate:"notblank,max=100"`
	Industry      string `json:"industry" yaml:"industry" validate:"notblank,max=100"`
	BuyerPersona  string `json:"buyerPersona" yaml:"buyerPersona" validate:"notblank,max=200"`
	MainPainPoint string `json:"mainPainPoint" yaml:"mainPainPoint" validate:"notblank,max=500"`
	UseCase       string `json:"useCase" yaml:"useCase" validate:"notblank,max=500"`

	// Logo is optional and never serialized; it carries an opener, not bytes.
	// It is validated when attached.
	Logo *LogoFile `json:"-" yaml:"-" validate:"-"`
}

// Get returns the value of the text field named by key.
func (f FormFields) Get(key string) (string, bool) {
	switch key {
	case FieldCompanyName:
		return f.CompanyName, true
	case FieldIndustry:
		return f.Industry, true
	case FieldBuyerPersona:
		return f.BuyerPersona, true
	case FieldMainPainPoint:
		return f.MainPainPoint, true
	case FieldUseCase:
		return f.UseCase, true
	}
	return "", false
}

// With returns a copy of f with the text field named by key set to value.
func (f FormFields) With(key, value string) (FormFields, bool) {
	switch key {
	case FieldCompanyName:
		f.CompanyName = value
	case FieldIndustry:
		f.Industry = value
	case FieldBuyerPersona:
		f.BuyerPersona = value
	case FieldMainPainPoint:
		f.MainPainPoint = value
	case FieldUseCase:
		f.UseCase = value
	default:
		return f, false
	}
	return f, true
}

// FieldErrors maps a field key to a human readable message. Empty means valid.
type FieldErrors map[string]string

// LogoFile is a candidate logo as the user selected it.
type LogoFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type GenerationRequest struct {
	CompanyName   string `json:"company_name"`
	Industry      string `json:"industry"`
	BuyerPersona  string `json:"buyer_persona"`
	MainPainPoint string `json:"main_pain_point"`
	UseCase       string `json:"use_case"`
	LogoBase64    string `json:"logo_base64,omitempty"`
}

type GenerationResult struct {
	Success         bool      `json:"success"`
	FileID          string    `json:"file_id"`
	DownloadURL     string    `json:"download_url"`
	Filename        string    `json:"filename"`
	SlidesGenerated int       `json:"slides_generated"`
	ExpiresAt       Timestamp `json:"expires_at"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ViewState string

const (
	StateEditing    ViewState = "editing"
	StateSubmitting ViewState = "submitting"
	StateCompleted  ViewState = "completed"
)

// View is everything a renderer needs to draw the form. Sessions replace it
// wholesale on every transition.
type View struct {
	State       ViewState         `json:"state"`
	Fields      FormFields        `json:"fields"`
	LogoName    string            `json:"logoName,omitempty"`
	FieldErrors FieldErrors       `json:"fieldErrors,omitempty"`
	FileError   string            `json:"fileError,omitempty"`
	SubmitError string            `json:"submitError,omitempty"`
	Result      *GenerationResult `json:"result,omitempty"`
	// DownloadURL is resolved by the client from Result.FileID.
	DownloadURL string `json:"downloadUrl,omitempty"`
}

type GenerationClient interface {
	SubmitGeneration(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
	CheckLiveness(ctx context.Context) (*HealthStatus, error)
	DownloadURL(fileID string) string
}

type LogoEncoder interface {
	Validate(file LogoFile) error
	Encode(ctx context.Context, file LogoFile) (string, error)
}

type StorageService interface {
	UploadFile(filePath, bucketName, fileName string) (string, error)
	DownloadFile(ctx context.Context, url string, destPath string) error
}
