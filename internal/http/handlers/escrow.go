package handlers

import (
	"net/http"
	"strconv"

	"vivahahub/internal/http/middleware"
	"vivahahub/internal/services"

	"github.com/gin-gonic/gin"
)

func escrowService(c *gin.Context) services.EscrowService {
	return services.EscrowService{RequestID: middleware.GetRequestID(c)}
}

// POST /api/escrow
func CreateEscrow(c *gin.Context) {
	var in services.CreateEscrowInput
	if !BindJSONOrError(c, &in) {
		return
	}

	escrow, err := escrowService(c).Create(middleware.GetActor(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"escrow": escrow})
}

// GET /api/escrow?booking_id=&escrow_id=
func ListEscrows(c *gin.Context) {
	bookingID, _ := strconv.ParseInt(c.Query("booking_id"), 10, 64)
	escrowID, _ := strconv.ParseInt(c.Query("escrow_id"), 10, 64)

	escrows, err := escrowService(c).List(middleware.GetActor(c), bookingID, escrowID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrows": escrows})
}

// GET /api/escrow/:id
func GetEscrow(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid escrow id", err)
		return
	}

	escrow, err := escrowService(c).Get(middleware.GetActor(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrow": escrow})
}

// POST /api/escrow/release
func ReleaseEscrow(c *gin.Context) {
	var in services.ReleaseInput
	if !BindJSONOrError(c, &in) {
		return
	}

	escrow, err := escrowService(c).Release(middleware.GetActor(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrow": escrow, "message": "funds released"})
}

// POST /api/escrow/refund
func RefundEscrow(c *gin.Context) {
	var in services.RefundInput
	if !BindJSONOrError(c, &in) {
		return
	}

	escrow, err := escrowService(c).Refund(middleware.GetActor(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrow": escrow, "message": "refund processed"})
}

// POST /api/escrow/dispute
func DisputeEscrow(c *gin.Context) {
	var in services.DisputeInput
	if !BindJSONOrError(c, &in) {
		return
	}

	escrow, err := escrowService(c).Dispute(middleware.GetActor(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrow": escrow, "message": "escrow marked as disputed"})
}

// GET /api/escrow/:id/statement
func EscrowStatement(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid escrow id", err)
		return
	}

	svc := services.StatementService{RequestID: middleware.GetRequestID(c)}
	pdfBytes, filename, err := svc.Generate(middleware.GetActor(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// GET /api/escrow/reconcile (admin only, enforced by route middleware)
func ReconcileEscrows(c *gin.Context) {
	svc := services.ReconcileService{RequestID: middleware.GetRequestID(c)}
	reports, err := svc.Audit()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "drift_count": len(reports)})
}
