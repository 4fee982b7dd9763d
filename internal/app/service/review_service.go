package service

import (
	"errors"
	"strings"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrReviewAlreadyExists = errors.New("you have already reviewed this product for this order")
	ErrReviewNotAllowed    = errors.New("only delivered orders containing the product can be reviewed")
)

type CreateReviewInput struct {
	ProductID uint
	OrderID   uint
	Rating    int
	Comment   string
}

type ReviewService interface {
	CreateReview(userID uint, input CreateReviewInput) (*model.Review, error)
	GetProductReviews(productID uint, page, pageSize int) ([]model.Review, int64, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	orderRepo  repository.OrderRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, orderRepo repository.OrderRepository) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		orderRepo:  orderRepo,
	}
}

func (s *reviewService) CreateReview(userID uint, input CreateReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	order, err := s.orderRepo.FindByID(input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotAllowed
		}
		return nil, err
	}
	if order.UserID != userID || order.OrderStatus != model.OrderStatusDelivered || !orderContains(order, input.ProductID) {
		logger.Warn("Review rejected", map[string]interface{}{
			"user_id":      userID,
			"order_id":     input.OrderID,
			"product_id":   input.ProductID,
			"order_status": order.OrderStatus,
		})
		return nil, ErrReviewNotAllowed
	}

	exists, err := s.reviewRepo.Exists(userID, input.ProductID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrReviewAlreadyExists
	}

	review := &model.Review{
		UserID:    userID,
		ProductID: input.ProductID,
		OrderID:   input.OrderID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
	}
	if err := s.reviewRepo.Create(review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrReviewAlreadyExists
		}
		logger.Error("Failed to create review", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": input.ProductID,
		})
		return nil, err
	}

	logger.Info("Review created", map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	})
	return review, nil
}

func orderContains(order *model.Order, productID uint) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func (s *reviewService) GetProductReviews(productID uint, page, pageSize int) ([]model.Review, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 20
	}
	return s.reviewRepo.FindByProductID(productID, (page-1)*pageSize, pageSize)
}
