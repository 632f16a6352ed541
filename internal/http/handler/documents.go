package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"crewops/internal/apperr"
	"crewops/internal/model"
	"crewops/internal/service"
)

type rejectRequest struct {
	Note string `json:"note"`
}

type downloadResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// SubmitDocument registers a seafarer document. Multipart requests carry the
// bytes in field "file"; JSON requests reference an object already stored.
// Seafarers always submit for themselves; admins may name owner_id.
//
//	@Summary	Submit a document for verification
//	@Tags		documents
//	@Security	BearerAuth
//	@Accept		multipart/form-data,json
//	@Produce	json
//	@Param		file		formData	file				false	"document file"
//	@Param		type		formData	string				false	"document type"
//	@Param		owner_id	formData	string				false	"owner (admin only)"
//	@Param		body		body		service.SubmitInput	false	"reference to a stored object"
//	@Success	201			{object}	model.Document
//	@Failure	400			{object}	errorPayload
//	@Failure	503			{object}	errorPayload
//	@Router		/api/v1/documents [post]
func SubmitDocument(svc service.VerificationService, storageEnabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}

		if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
			if !storageEnabled {
				return service.ErrStorageDisabled
			}
			fh, err := c.FormFile("file")
			if err != nil {
				return invalidInput("FILE_REQUIRED", "file is required")
			}
			owner, err := ownerFor(a, utils.CopyString(c.FormValue("owner_id")))
			if err != nil {
				return err
			}

			f, err := fh.Open()
			if err != nil {
				return invalidInput("FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()

			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}

			doc, err := svc.Upload(c.UserContext(), f, service.UploadInput{
				OwnerID:     owner,
				Type:        model.DocumentType(utils.CopyString(c.FormValue("type"))),
				Filename:    fh.Filename,
				ContentType: ct,
				Size:        fh.Size,
			})
			if err != nil {
				return err
			}
			return c.Status(fiber.StatusCreated).JSON(doc)
		}

		var in service.SubmitInput
		if err := c.BodyParser(&in); err != nil {
			return invalidInput("INVALID_BODY", "request body must be a JSON document reference")
		}
		if in.OwnerID, err = ownerFor(a, in.OwnerID); err != nil {
			return err
		}
		doc, err := svc.Submit(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ownerFor resolves whose document is being submitted.
func ownerFor(a model.Actor, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if a.IsAdmin() {
		return requested, nil
	}
	if requested != "" && requested != a.ID {
		return "", fiber.NewError(fiber.StatusForbidden, "seafarers may only submit their own documents")
	}
	return a.ID, nil
}

// ListDocuments pages documents. Seafarers only ever see their own.
//
//	@Summary	List documents
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		owner_id	query		string	false	"owner filter"
//	@Param		status		query		string	false	"pending, approved or rejected"
//	@Param		type		query		string	false	"document type"
//	@Param		limit		query		int		false	"page size"
//	@Param		offset		query		int		false	"page offset"
//	@Success	200			{object}	service.DocumentListResult
//	@Failure	400			{object}	errorPayload
//	@Router		/api/v1/documents [get]
func ListDocuments(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		limit, offset, err := pagination(c)
		if err != nil {
			return err
		}

		q := service.DocumentListQuery{
			OwnerID: c.Query("owner_id"),
			Status:  model.DocumentStatus(c.Query("status")),
			Type:    model.DocumentType(c.Query("type")),
			Limit:   limit,
			Offset:  offset,
		}
		if a.Role == model.RoleSeafarer {
			q.OwnerID = a.ID
		}

		res, err := svc.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GetDocument returns one document. Another seafarer's document reads as not found.
//
//	@Summary	Get a document
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"document id"
//	@Success	200	{object}	model.Document
//	@Failure	404	{object}	errorPayload
//	@Router		/api/v1/documents/{id} [get]
func GetDocument(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "document")
		if err != nil {
			return err
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		if a.Role == model.RoleSeafarer && doc.OwnerID != a.ID {
			return apperr.NotFound("document", id)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument hands out a short-lived presigned URL.
//
//	@Summary	Presigned download URL
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"document id"
//	@Success	200	{object}	downloadResponse
//	@Failure	404	{object}	errorPayload
//	@Failure	503	{object}	errorPayload
//	@Router		/api/v1/documents/{id}/download [get]
func DownloadDocument(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "document")
		if err != nil {
			return err
		}
		u, err := svc.DownloadURL(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(downloadResponse{URL: u, ExpiresIn: int(service.DownloadURLExpiry.Seconds())})
	}
}

// ApproveDocument records the admin decision.
//
//	@Summary	Approve a pending document
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"document id"
//	@Success	200	{object}	model.Document
//	@Failure	404	{object}	errorPayload
//	@Failure	409	{object}	errorPayload
//	@Router		/api/v1/documents/{id}/approve [post]
func ApproveDocument(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "document")
		if err != nil {
			return err
		}
		doc, err := svc.Approve(c.UserContext(), id, a.ID)
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// RejectDocument accepts an optional {"note"}; an empty body is allowed.
//
//	@Summary	Reject a pending document
//	@Tags		documents
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"document id"
//	@Param		body	body		rejectRequest	false	"reviewer note"
//	@Success	200		{object}	model.Document
//	@Failure	404		{object}	errorPayload
//	@Failure	409		{object}	errorPayload
//	@Router		/api/v1/documents/{id}/reject [post]
func RejectDocument(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "document")
		if err != nil {
			return err
		}
		var body rejectRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return invalidInput("INVALID_BODY", "request body must be JSON")
			}
		}
		doc, err := svc.Reject(c.UserContext(), id, a.ID, body.Note)
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// DocumentationStatus reports whether a seafarer holds every required approved
// document. Seafarers may only ask about themselves.
//
//	@Summary	Seafarer documentation status
//	@Tags		documents
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"seafarer id"
//	@Success	200	{object}	model.DocumentationStatus
//	@Failure	403	{object}	errorPayload
//	@Router		/api/v1/seafarers/{id}/documentation [get]
func DocumentationStatus(tracker service.DocumentationTracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := actor(c)
		if err != nil {
			return err
		}
		id := utils.CopyString(c.Params("id"))
		if a.Role == model.RoleSeafarer && id != a.ID {
			return fiber.NewError(fiber.StatusForbidden, "seafarers may only view their own documentation")
		}
		st, err := tracker.Status(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}
