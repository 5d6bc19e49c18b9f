package backend

import "time"

// Account mirrors the backend user schema.
type Account struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// AccountRef is the reduced user shape embedded in clinician analyses.
type AccountRef struct {
	Username string `json:"username"`
}

// Token is the response of the token-issuance endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AnalysisResult carries the computer-generated diagnosis and the human
// follow-up recorded against it. FeedbackCorrect is -1 until a diagnostician
// confirms, then 0 (wrong) or 1 (correct).
type AnalysisResult struct {
	SystemDiagnosis         string `json:"system_diagnosis"`
	DiagnosticianConclusion string `json:"diagnostician_conclusion,omitempty"`
	IsConfirmed             bool   `json:"is_confirmed"`
	FeedbackCorrect         int    `json:"feedback_correct"`
	TreatmentPlan           string `json:"treatment_plan,omitempty"`
}

// Patient is the reduced patient shape returned with histories.
type Patient struct {
	FirstName           string `json:"first_name,omitempty"`
	LastName            string `json:"last_name,omitempty"`
	MedicalRecordNumber string `json:"medical_record_number"`
}

// Analysis is the full analysis record as returned to diagnosticians and
// admins.
type Analysis struct {
	ID             int             `json:"id"`
	DateOfAnalysis time.Time       `json:"date_of_analysis"`
	ImagePath      string          `json:"image_path"`
	Patient        *Patient        `json:"patient,omitempty"`
	Results        *AnalysisResult `json:"results,omitempty"`
}

// ClinicianAnalysis is the analysis shape returned in patient histories,
// annotated with the confirming diagnostician.
type ClinicianAnalysis struct {
	ID             int             `json:"id"`
	DateOfAnalysis time.Time       `json:"date_of_analysis"`
	ImagePath      string          `json:"image_path"`
	Results        *AnalysisResult `json:"results,omitempty"`
	Diagnostician  *AccountRef     `json:"diagnostician,omitempty"`
}

// PatientHistory bundles a patient with every analysis on record for them.
type PatientHistory struct {
	Patient  Patient             `json:"patient"`
	Analyses []ClinicianAnalysis `json:"analyses"`
}

// UploadResult is the response of a successful image upload.
type UploadResult struct {
	Message         string `json:"message"`
	AnalysisID      int    `json:"analysis_id"`
	PatientMRN      string `json:"patient_mrn"`
	SystemDiagnosis string `json:"system_diagnosis"`
}

// ModelMetrics aggregates diagnostician feedback into model accuracy figures.
type ModelMetrics struct {
	TotalConfirmed     int     `json:"total_confirmed"`
	CorrectPredictions int     `json:"correct_predictions"`
	AccuracyPercentage float64 `json:"accuracy_percentage"`
}
