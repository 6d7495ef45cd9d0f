package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/farm-market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/farm-market-backend/internal/interface/http/response"
	"github.com/ignatzorin/farm-market-backend/internal/pkg/apperror"
	"github.com/ignatzorin/farm-market-backend/internal/usecase/listing"
)

type ListingHandler struct {
	createListingUC  *listing.CreateListingUseCase
	getListingUC     *listing.GetListingUseCase
	searchListingsUC *listing.SearchListingsUseCase
	listMyListingsUC *listing.ListMyListingsUseCase
	updateListingUC  *listing.UpdateListingUseCase
	deleteListingUC  *listing.DeleteListingUseCase
	setImageUC       *listing.SetListingImageUseCase
	maxUploadBytes   int64
}

func NewListingHandler(
	createListingUC *listing.CreateListingUseCase,
	getListingUC *listing.GetListingUseCase,
	searchListingsUC *listing.SearchListingsUseCase,
	listMyListingsUC *listing.ListMyListingsUseCase,
	updateListingUC *listing.UpdateListingUseCase,
	deleteListingUC *listing.DeleteListingUseCase,
	setImageUC *listing.SetListingImageUseCase,
	maxUploadBytes int64,
) *ListingHandler {
	return &ListingHandler{
		createListingUC:  createListingUC,
		getListingUC:     getListingUC,
		searchListingsUC: searchListingsUC,
		listMyListingsUC: listMyListingsUC,
		updateListingUC:  updateListingUC,
		deleteListingUC:  deleteListingUC,
		setImageUC:       setImageUC,
		maxUploadBytes:   maxUploadBytes,
	}
}

// ListListings обрабатывает GET /listings: публичный поиск с фильтрами.
func (h *ListingHandler) ListListings(c *gin.Context) {
	minPrice, err := parseFloatQuery(c, "minPrice")
	if err != nil {
		response.BadRequest(c, "minPrice должен быть числом")
		return
	}
	maxPrice, err := parseFloatQuery(c, "maxPrice")
	if err != nil {
		response.BadRequest(c, "maxPrice должен быть числом")
		return
	}

	input := listing.SearchListingsInput{
		Crop:     c.Query("crop"),
		Location: c.Query("location"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Status:   c.Query("status"),
		Limit:    parseIntQuery(c, "limit", listing.DefaultPageSize),
		Offset:   parseIntQuery(c, "offset", 0),
	}

	items, total, err := h.searchListingsUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	limit, offset := listing.NormalizePage(input.Limit, input.Offset)
	response.Paginated(c, dto.ToListingDetailsResponses(items), total, limit, offset)
}

func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, ok := pathID(c, "объявления")
	if !ok {
		return
	}

	l, err := h.getListingUC.Execute(c.Request.Context(), listingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingDetailsResponse(l))
}

// ListMyListings обрабатывает GET /listings/my.
func (h *ListingHandler) ListMyListings(c *gin.Context) {
	farmerID, ok := requireUserID(c)
	if !ok {
		return
	}

	items, err := h.listMyListingsUC.Execute(c.Request.Context(), farmerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToListingResponses(items))
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	farmerID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	created, err := h.createListingUC.Execute(c.Request.Context(), listing.CreateListingInput{
		FarmerID:    farmerID,
		CropName:    req.CropName,
		Quantity:    *req.Quantity,
		Unit:        req.Unit,
		Price:       *req.Price,
		Currency:    req.Currency,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "объявление создано", dto.ToListingDetailsResponse(created))
}

func (h *ListingHandler) UpdateListing(c *gin.Context) {
	farmerID, ok := requireUserID(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "объявления")
	if !ok {
		return
	}

	var req dto.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	updated, err := h.updateListingUC.Execute(c.Request.Context(), listing.UpdateListingInput{
		ListingID: listingID,
		FarmerID:  farmerID,
		Patch:     req.Patch(),
		Status:    req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "объявление обновлено", dto.ToListingDetailsResponse(updated))
}

func (h *ListingHandler) DeleteListing(c *gin.Context) {
	farmerID, ok := requireUserID(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "объявления")
	if !ok {
		return
	}

	if err := h.deleteListingUC.Execute(c.Request.Context(), listingID, farmerID); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "объявление удалено", nil)
}

// UploadImage обрабатывает POST /listings/:id/image (multipart, поле image).
func (h *ListingHandler) UploadImage(c *gin.Context) {
	farmerID, ok := requireUserID(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "объявления")
	if !ok {
		return
	}

	// запас на заголовки multipart
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, apperror.New(apperror.ErrCodeValidation, "файл слишком большой"))
			return
		}
		response.BadRequest(c, "поле image обязательно")
		return
	}
	if file.Size == 0 {
		response.BadRequest(c, "файл не может быть пустым")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	updated, err := h.setImageUC.Execute(c.Request.Context(), listing.SetListingImageInput{
		ListingID: listingID,
		FarmerID:  farmerID,
		Filename:  file.Filename,
		Content:   src,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "изображение загружено", dto.ToListingDetailsResponse(updated))
}
