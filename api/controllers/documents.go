package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hptourism/homestay-portal/api/responses"
	"github.com/hptourism/homestay-portal/api/validators"
	"github.com/hptourism/homestay-portal/internal/applications"
	"github.com/hptourism/homestay-portal/internal/documents"
	"github.com/hptourism/homestay-portal/pkg/enums"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/logger"
)

type uploadDocumentRequest struct {
	DocumentType string `json:"document_type" validate:"required"`
	FilePath     string `json:"file_path" validate:"required"`
	FileName     string `json:"file_name" validate:"required"`
	SizeBytes    int64  `json:"size_bytes" validate:"required,min=1"`
}

type verifyDocumentRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

// DocumentsUpload attaches an uploaded file's metadata to an application.
func DocumentsUpload(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body uploadDocumentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docType, err := enums.ParseDocumentType(body.DocumentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown document type").WithDetails(map[string]any{"field": "document_type"}))
			return
		}

		doc, err := svc.Upload(r.Context(), actor.ID, actor.Role, documents.UploadInput{
			ApplicationID: appID,
			DocumentType:  docType,
			FilePath:      body.FilePath,
			FileName:      body.FileName,
			SizeBytes:     body.SizeBytes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, doc)
	}
}

// DocumentsList returns the uploaded set for one application.
func DocumentsList(apps applications.Service, svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := apps.Get(r.Context(), actor, appID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docs, err := svc.ListForApplication(r.Context(), appID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"documents": docs})
	}
}

// DocumentsVerify records a reviewer decision on one uploaded document.
func DocumentsVerify(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body verifyDocumentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseDocVerificationStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown verification status").WithDetails(map[string]any{"field": "status"}))
			return
		}

		doc, err := svc.Verify(r.Context(), actor.ID, actor.Role, documents.VerifyInput{
			DocumentID: docID,
			Status:     status,
			Notes:      body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, doc)
	}
}
