package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PatientHistory fetches a patient record and every analysis on file for it,
// looked up by medical record number.
func (c *Client) PatientHistory(ctx context.Context, mrn string) (PatientHistory, error) {
	var hist PatientHistory
	if err := c.getJSON(ctx, "/v1/patients/"+url.PathEscape(mrn)+"/history", &hist); err != nil {
		return PatientHistory{}, err
	}
	return hist, nil
}

// PrescribeTreatment records the clinician's treatment plan on an analysis.
func (c *Client) PrescribeTreatment(ctx context.Context, analysisID int, plan string) (ClinicianAnalysis, error) {
	body := map[string]string{"treatment_plan": plan}
	var a ClinicianAnalysis
	if err := c.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/v1/patients/analyses/%d/prescribe", analysisID), body, &a); err != nil {
		return ClinicianAnalysis{}, err
	}
	return a, nil
}
