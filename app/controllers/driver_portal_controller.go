package controllers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetport/fleetport/app/models"
	"github.com/fleetport/fleetport/app/repository"
	"github.com/fleetport/fleetport/internal/pkg/contracts"
	"github.com/fleetport/fleetport/internal/pkg/database"
	"github.com/fleetport/fleetport/internal/pkg/docstore"
	"github.com/fleetport/fleetport/internal/pkg/usercontext"
)

const maxDocumentSizeBytes = 15 * 1024 * 1024

// currentDriver resolves the driver profile of the logged-in user
func currentDriver(c *fiber.Ctx) (*models.Driver, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "login required")
	}
	driver, err := repository.GetGlobalFactory().GetDriverRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "no driver profile for this account")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load driver profile")
	}
	return driver, nil
}

// HandleDriverProfile returns the logged-in driver's profile with documents
func HandleDriverProfile(c *fiber.Ctx) error {
	driver, err := currentDriver(c)
	if err != nil {
		return err
	}

	docs, err := repository.GetGlobalFactory().GetDriverDocumentRepository().GetByDriverID(driver.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load documents")
	}

	return c.JSON(fiber.Map{"driver": driver, "documents": docs})
}

// HandleDriverProfileUpdate updates the driver's contact data. Licence data
// is immutable once verified.
func HandleDriverProfileUpdate(c *fiber.Ctx) error {
	driver, err := currentDriver(c)
	if err != nil {
		return err
	}

	var req struct {
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Malformed request body")
	}

	driver.Phone = req.Phone
	driver.Address = req.Address
	if err := driver.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}
	if err := repository.GetGlobalFactory().GetDriverRepository().Update(driver); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update profile")
	}
	return c.JSON(fiber.Map{"driver": driver})
}

// HandleDriverDocumentUpload stores a verification document in the document
// store and records its reference for admin review.
func HandleDriverDocumentUpload(c *fiber.Ctx) error {
	driver, err := currentDriver(c)
	if err != nil {
		return err
	}

	store := docstore.GetClient()
	if store == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "docstore_unavailable", "Document uploads are currently disabled")
	}

	kind := c.FormValue("kind", models.DocumentKindOther)
	switch kind {
	case models.DocumentKindLicenceFront, models.DocumentKindLicenceBack,
		models.DocumentKindIdentity, models.DocumentKindProofOfStay, models.DocumentKindOther:
	default:
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Unknown document kind")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "missing_file", "A file upload is required")
	}
	if fileHeader.Size > maxDocumentSizeBytes {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "file_too_large", "Document exceeds the upload limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to read upload")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	objectKey := store.Config().DriverDocumentKey(driver.ID, uuid.NewString(), ext)
	if err := store.Put(c.Context(), objectKey, contentType, file); err != nil {
		return jsonError(c, fiber.StatusBadGateway, "docstore_upload_failed", "Document could not be stored")
	}

	doc := &models.DriverDocument{
		DriverID:     driver.ID,
		Kind:         kind,
		FileName:     fileHeader.Filename,
		StorageKey:   objectKey,
		ContentType:  contentType,
		SizeBytes:    fileHeader.Size,
		ReviewStatus: models.DocumentReviewPending,
	}
	if err := repository.GetGlobalFactory().GetDriverDocumentRepository().Create(doc); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Document reference could not be saved")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": doc})
}

// HandleDriverContractList lists the logged-in driver's contracts
func HandleDriverContractList(c *fiber.Ctx) error {
	driver, err := currentDriver(c)
	if err != nil {
		return err
	}

	list, err := repository.GetGlobalFactory().GetContractRepository().ListByDriverID(driver.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load contracts")
	}
	return c.JSON(fiber.Map{"contracts": list})
}

// driverContract loads a contract and enforces ownership
func driverContract(c *fiber.Ctx, driverID uint) (*models.Contract, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	contract, err := repository.GetGlobalFactory().GetContractRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "contract not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load contract")
	}
	if contract.DriverID != driverID {
		// Ownership violations read as not-found to avoid leaking contract ids.
		return nil, fiber.NewError(fiber.StatusNotFound, "contract not found")
	}
	return contract, nil
}

// HandleDriverContractDetail returns one of the driver's contracts with its
// payment history
func HandleDriverContractDetail(c *fiber.Ctx) error {
	driver, err := currentDriver(c)
	if err != nil {
		return err
	}
	contract, err := driverContract(c, driver.ID)
	if err != nil {
		return err
	}

	payments, err := repository.GetGlobalFactory().GetPaymentRepository().ListByContractID(contract.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}
	return c.JSON(fiber.Map{"contract": contract, "payments": payments})
}

// HandleDriverContractSign records the driver's signature on a contract that
// was sent to them. The signature image is stored in the document store; only
// its key is persisted.
func HandleDriverContractSign(c *fiber.Ctx) error {
	driver, err := currentDriver(c)
	if err != nil {
		return err
	}
	contract, err := driverContract(c, driver.ID)
	if err != nil {
		return err
	}

	var req struct {
		// SignatureData is a base64 encoded PNG of the captured signature.
		SignatureData string `json:"signature_data"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Malformed request body")
	}
	if req.SignatureData == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "signature_data is required")
	}
	raw, err := base64.StdEncoding.DecodeString(req.SignatureData)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "signature_data must be base64")
	}

	store := docstore.GetClient()
	if store == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "docstore_unavailable", "Signing is currently disabled")
	}

	objectKey := store.Config().ContractDocumentKey(contract.ContractNumber, "signature-"+uuid.NewString()+".png")
	if err := store.Put(c.Context(), objectKey, "image/png", bytes.NewReader(raw)); err != nil {
		return jsonError(c, fiber.StatusBadGateway, "docstore_upload_failed", "Signature could not be stored")
	}

	svc := contracts.NewServiceFromDB(database.GetDB())
	signed, err := svc.MarkSigned(c.Context(), contract.ID, objectKey)
	if err != nil {
		return contractError(c, err)
	}
	return c.JSON(fiber.Map{"contract": signed})
}

// HandleDriverPaymentList lists all payments across the driver's contracts
func HandleDriverPaymentList(c *fiber.Ctx) error {
	driver, err := currentDriver(c)
	if err != nil {
		return err
	}

	payments, err := repository.GetGlobalFactory().GetPaymentRepository().ListByDriverID(driver.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payments")
	}
	return c.JSON(fiber.Map{"payments": payments})
}
