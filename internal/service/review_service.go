package service

import (
	"context"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// reviewStore is the slice of the store the review aggregator needs.
type reviewStore interface {
	UpsertReviewTx(ctx context.Context, review *models.Review) (*models.Product, error)
	DeleteReviewTx(ctx context.Context, productID, reviewID int64) (*models.Product, error)
	GetReviews(ctx context.Context, productID int64) ([]models.Review, error)
}

// reviewPublisher publishes review domain events.
type reviewPublisher interface {
	PublishReviewUpserted(ctx context.Context, event *models.ReviewUpsertedEvent) error
}

// ReviewService maintains the per-product review collection and its derived
// average. One review per author; the upsert and the recompute of the
// average are a single logical unit at the store layer.
type ReviewService struct {
	store     reviewStore
	publisher reviewPublisher
	logger    *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store reviewStore, publisher reviewPublisher) *ReviewService {
	return &ReviewService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// UpsertReviewRequest carries a review write from an authenticated caller.
// UserID and UserName come from the identity context and are trusted verbatim.
type UpsertReviewRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	UserID    string `json:"-"`
	UserName  string `json:"-"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment" binding:"required"`
}

// UpsertReview writes the caller's review of a product, overwriting rating
// and comment if the caller reviewed it before, and returns the product with
// its recomputed ratings average and review count.
func (s *ReviewService) UpsertReview(ctx context.Context, req *UpsertReviewRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.UpsertReview")
	defer span.End()

	if req.Rating < 1 || req.Rating > 5 {
		util.ReviewsRejectedTotal.WithLabelValues("rating_out_of_range").Inc()
		return nil, apperr.Validationf("rating must be between 1 and 5, got %d", req.Rating)
	}
	if req.UserID == "" {
		util.ReviewsRejectedTotal.WithLabelValues("missing_author").Inc()
		return nil, apperr.Validation("review author is required")
	}

	review := &models.Review{
		ProductID: req.ProductID,
		UserID:    req.UserID,
		Name:      req.UserName,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	product, err := s.store.UpsertReviewTx(ctx, review)
	if err != nil {
		return nil, err
	}

	// The store fills CreatedAt only when it inserted a fresh row.
	kind := "updated"
	if !review.CreatedAt.IsZero() {
		kind = "created"
	}
	util.ReviewsUpsertedTotal.WithLabelValues(kind).Inc()

	s.logger.Info("Review upserted",
		zap.Int64("product_id", product.ID),
		zap.String("user_id", req.UserID),
		zap.Int("rating", req.Rating),
		zap.Float64("ratings", product.Ratings),
		zap.Int("num_of_reviews", product.NumOfReviews))

	event := &models.ReviewUpsertedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReviewUpserted,
			Timestamp: time.Now(),
		},
		ProductID:    product.ID,
		UserID:       req.UserID,
		Rating:       req.Rating,
		Ratings:      product.Ratings,
		NumOfReviews: product.NumOfReviews,
	}
	if err := s.publisher.PublishReviewUpserted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReviewUpserted event", zap.Error(err))
	}

	return product, nil
}

// DeleteReview removes a review by its own identity and returns the product
// with its recomputed derived fields; both fall to zero when the last review
// goes.
func (s *ReviewService) DeleteReview(ctx context.Context, productID, reviewID int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.DeleteReview")
	defer span.End()

	product, err := s.store.DeleteReviewTx(ctx, productID, reviewID)
	if err != nil {
		return nil, err
	}

	util.ReviewsDeletedTotal.Inc()
	s.logger.Info("Review deleted",
		zap.Int64("product_id", productID),
		zap.Int64("review_id", reviewID),
		zap.Float64("ratings", product.Ratings),
		zap.Int("num_of_reviews", product.NumOfReviews))

	return product, nil
}

// GetReviews lists all reviews owned by a product
func (s *ReviewService) GetReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	return s.store.GetReviews(ctx, productID)
}
