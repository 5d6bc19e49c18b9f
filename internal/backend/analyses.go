package backend

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadAnalysis streams a medical image to the backend, which runs the
// automated analysis and returns the system diagnosis.
func (c *Client) UploadAnalysis(ctx context.Context, patientMRN, filename string, file io.Reader) (UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = mw.WriteField("patient_mrn", patientMRN)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/analyses/upload_analysis", pr)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res UploadResult
	if err := c.do(req, &res); err != nil {
		return UploadResult{}, err
	}
	return res, nil
}

// MyHistory lists every analysis performed by the calling diagnostician.
func (c *Client) MyHistory(ctx context.Context) ([]Analysis, error) {
	var analyses []Analysis
	if err := c.getJSON(ctx, "/v1/analyses/my_history", &analyses); err != nil {
		return nil, err
	}
	return analyses, nil
}

// Analysis fetches one analysis with full detail.
func (c *Client) Analysis(ctx context.Context, id int) (Analysis, error) {
	var a Analysis
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/analyses/%d", id), &a); err != nil {
		return Analysis{}, err
	}
	return a, nil
}

// ConfirmDiagnosis records the diagnostician's final conclusion together with
// feedback on whether the system diagnosis was correct.
func (c *Client) ConfirmDiagnosis(ctx context.Context, id int, conclusion string, correct bool) (Analysis, error) {
	body := map[string]any{
		"conclusion": conclusion,
		"is_correct": correct,
	}
	var a Analysis
	if err := c.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/v1/analyses/%d/confirm", id), body, &a); err != nil {
		return Analysis{}, err
	}
	return a, nil
}
