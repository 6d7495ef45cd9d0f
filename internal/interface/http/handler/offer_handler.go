package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/farm-market-backend/internal/export"
	"github.com/ignatzorin/farm-market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/farm-market-backend/internal/interface/http/response"
	"github.com/ignatzorin/farm-market-backend/internal/usecase/offer"
)

type OfferHandler struct {
	createOfferUC   *offer.CreateOfferUseCase
	acceptOfferUC   *offer.AcceptOfferUseCase
	rejectOfferUC   *offer.RejectOfferUseCase
	getOfferUC      *offer.GetOfferUseCase
	listReceivedUC  *offer.ListReceivedOffersUseCase
	listSentUC      *offer.ListSentOffersUseCase
	exportReceiveUC *offer.ExportReceivedOffersUseCase
}

func NewOfferHandler(
	createOfferUC *offer.CreateOfferUseCase,
	acceptOfferUC *offer.AcceptOfferUseCase,
	rejectOfferUC *offer.RejectOfferUseCase,
	getOfferUC *offer.GetOfferUseCase,
	listReceivedUC *offer.ListReceivedOffersUseCase,
	listSentUC *offer.ListSentOffersUseCase,
	exportReceiveUC *offer.ExportReceivedOffersUseCase,
) *OfferHandler {
	return &OfferHandler{
		createOfferUC:   createOfferUC,
		acceptOfferUC:   acceptOfferUC,
		rejectOfferUC:   rejectOfferUC,
		getOfferUC:      getOfferUC,
		listReceivedUC:  listReceivedUC,
		listSentUC:      listSentUC,
		exportReceiveUC: exportReceiveUC,
	}
}

// CreateOffer обрабатывает POST /offers (только покупатель).
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	buyerID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	created, err := h.createOfferUC.Execute(c.Request.Context(), offer.CreateOfferInput{
		ListingID:  req.ListingID,
		BuyerID:    buyerID,
		OfferPrice: *req.OfferPrice,
		Message:    req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "предложение отправлено", dto.ToOfferResponse(created))
}

func (h *OfferHandler) GetOffer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	offerID, ok := pathID(c, "предложения")
	if !ok {
		return
	}

	o, err := h.getOfferUC.Execute(c.Request.Context(), offerID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOfferResponse(o))
}

func (h *OfferHandler) ListReceived(c *gin.Context) {
	farmerID, ok := requireUserID(c)
	if !ok {
		return
	}

	offers, err := h.listReceivedUC.Execute(c.Request.Context(), farmerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOfferResponses(offers))
}

// ExportReceived отдаёт полученные предложения файлом xlsx.
func (h *OfferHandler) ExportReceived(c *gin.Context) {
	farmerID, ok := requireUserID(c)
	if !ok {
		return
	}

	data, err := h.exportReceiveUC.Execute(c.Request.Context(), farmerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("offers-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType, data)
}

func (h *OfferHandler) ListSent(c *gin.Context) {
	buyerID, ok := requireUserID(c)
	if !ok {
		return
	}

	offers, err := h.listSentUC.Execute(c.Request.Context(), buyerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOfferResponses(offers))
}

// AcceptOffer обрабатывает PUT /offers/:id/accept: объявление продаётся,
// остальные ожидающие предложения отклоняются.
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	farmerID, ok := requireUserID(c)
	if !ok {
		return
	}
	offerID, ok := pathID(c, "предложения")
	if !ok {
		return
	}

	accepted, err := h.acceptOfferUC.Execute(c.Request.Context(), offerID, farmerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "предложение принято", dto.ToOfferResponse(accepted))
}

func (h *OfferHandler) RejectOffer(c *gin.Context) {
	farmerID, ok := requireUserID(c)
	if !ok {
		return
	}
	offerID, ok := pathID(c, "предложения")
	if !ok {
		return
	}

	rejected, err := h.rejectOfferUC.Execute(c.Request.Context(), offerID, farmerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "предложение отклонено", dto.ToOfferResponse(rejected))
}
