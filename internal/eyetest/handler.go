package eyetest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"visionx-backend/internal/auth"
	"visionx-backend/internal/customer"
	"visionx-backend/internal/models"
	"visionx-backend/internal/notification"
	"visionx-backend/internal/vision"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ModeEye  = "eye"
	ModeFace = "face"
)

type EyeTestResponse struct {
	ID           uint                  `json:"id"`
	CustomerID   uint                  `json:"customer_id"`
	CustomerName string                `json:"customer_name"`
	Date         time.Time             `json:"date"`
	Results      models.EyeTestResults `json:"results"`
	ImageURL     string                `json:"image_url"`
}

type eyeTestRow struct {
	ID           uint
	CustomerID   uint
	CustomerName string
	Date         time.Time
	Results      datatypes.JSONType[models.EyeTestResults]
	ImageURL     string
}

type CreateEyeTestRequest struct {
	CustomerID models.FlexInt         `json:"customer_id"`
	Results    *models.EyeTestResults `json:"results"`
	ImageURL   string                 `json:"image_url"`
}

type AnalyzeRequest struct {
	Mode       string         `json:"mode"`
	Image      string         `json:"image"`
	MIMEType   string         `json:"mime_type"`
	CustomerID models.FlexInt `json:"customer_id"`
	ImageURL   string         `json:"image_url"`
}

type AnalyzeEyeResponse struct {
	ID      *uint                  `json:"id,omitempty"`
	Results *models.EyeTestResults `json:"results"`
}

// GET /api/eye-tests
func ListHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []eyeTestRow
		err := db.WithContext(c.UserContext()).
			Table("eye_tests").
			Select(`eye_tests.id, eye_tests.customer_id, customers.name AS customer_name,
				eye_tests."date", eye_tests.results, eye_tests.image_url`).
			Joins("JOIN customers ON customers.id = eye_tests.customer_id").
			Order(clause.OrderByColumn{Column: clause.Column{Table: "eye_tests", Name: "date"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Table: "eye_tests", Name: "id"}, Desc: true}).
			Scan(&rows).Error
		if err != nil {
			log.Error("list eye tests", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load eye tests")
		}

		res := make([]EyeTestResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, EyeTestResponse{
				ID:           r.ID,
				CustomerID:   r.CustomerID,
				CustomerName: r.CustomerName,
				Date:         r.Date,
				Results:      r.Results.Data(),
				ImageURL:     r.ImageURL,
			})
		}
		return c.JSON(res)
	}
}

func save(ctx context.Context, db *gorm.DB, customerID uint, results models.EyeTestResults, imageURL string) (uint, error) {
	if results.Abnormalities == nil {
		results.Abnormalities = []string{}
	}
	t := models.EyeTest{
		CustomerID: customerID,
		Date:       time.Now(),
		Results:    datatypes.NewJSONType(results),
		ImageURL:   strings.TrimSpace(imageURL),
	}
	if err := db.WithContext(ctx).Create(&t).Error; err != nil {
		return 0, err
	}
	return t.ID, nil
}

func requireCustomer(ctx context.Context, db *gorm.DB, id uint) error {
	ok, err := customer.Exists(ctx, db, id)
	if err != nil {
		return err
	}
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Customer not found")
	}
	return nil
}

// POST /api/customers/test
func CreateHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEyeTestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.CustomerID.Uint() == 0 || body.Results == nil || body.Results.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id and results are required")
		}

		ctx := c.UserContext()
		if err := requireCustomer(ctx, db, body.CustomerID.Uint()); err != nil {
			return err
		}

		id, err := save(ctx, db, body.CustomerID.Uint(), *body.Results, body.ImageURL)
		if err != nil {
			log.Error("create eye test", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to save eye test")
		}
		return c.JSON(fiber.Map{"id": id})
	}
}

// POST /api/eye-tests/analyze
// The image comes inline as base64 or, when image is empty, is downloaded
// from image_url.
func AnalyzeHandler(db *gorm.DB, analyzer vision.Analyzer, fetcher *vision.Fetcher, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if analyzer == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Image analysis is not configured")
		}

		var body AnalyzeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		mode := strings.ToLower(strings.TrimSpace(body.Mode))
		if mode == "" {
			mode = ModeEye
		}
		if mode != ModeEye && mode != ModeFace {
			return fiber.NewError(fiber.StatusBadRequest, "mode must be eye or face")
		}

		ctx := c.UserContext()
		img, err := loadImage(ctx, fetcher, body)
		if err != nil {
			if errors.Is(err, vision.ErrFetchFailed) {
				log.Info("image download failed", zap.String("image_url", body.ImageURL), zap.Error(err))
				return fiber.NewError(fiber.StatusBadRequest, "Could not download image")
			}
			return fiber.NewError(fiber.StatusBadRequest, "Invalid image")
		}

		customerID := body.CustomerID.Uint()
		if mode == ModeEye && customerID != 0 {
			// reject before spending a model call on an unknown customer
			if err := requireCustomer(ctx, db, customerID); err != nil {
				return err
			}
		}

		if mode == ModeFace {
			res, err := analyzer.AnalyzeFace(ctx, img)
			if err != nil {
				return analysisFailed(log, mode, err)
			}
			return c.JSON(res)
		}

		res, err := analyzer.AnalyzeEye(ctx, img)
		if err != nil {
			return analysisFailed(log, mode, err)
		}

		out := AnalyzeEyeResponse{Results: res}
		if customerID != 0 {
			id, err := save(ctx, db, customerID, *res, body.ImageURL)
			if err != nil {
				log.Error("save analyzed eye test", zap.Uint("customer_id", customerID), zap.Error(err))
				return fiber.NewError(fiber.StatusInternalServerError, "Failed to save eye test")
			}
			out.ID = &id

			if uid, ok := c.Locals(auth.CtxUserIDKey).(uint); ok {
				msg := fmt.Sprintf("AI eye test #%d saved for customer #%d", id, customerID)
				if _, err := notification.Notify(ctx, db, uid, "Eye test ready", msg, "success"); err != nil {
					log.Warn("eye test notification not sent", zap.Uint("eye_test_id", id), zap.Error(err))
				}
			}
		}
		return c.JSON(out)
	}
}

func loadImage(ctx context.Context, fetcher *vision.Fetcher, body AnalyzeRequest) (vision.Image, error) {
	url := strings.TrimSpace(body.ImageURL)
	if strings.TrimSpace(body.Image) == "" && url != "" && fetcher != nil {
		return fetcher.Fetch(ctx, url)
	}
	return vision.DecodeImage(body.Image, body.MIMEType)
}

func analysisFailed(log *zap.Logger, mode string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("image analysis timed out", zap.String("mode", mode))
		return fiber.NewError(fiber.StatusGatewayTimeout, "Image analysis timed out")
	}
	log.Error("image analysis failed", zap.String("mode", mode), zap.Error(err))
	return fiber.NewError(fiber.StatusBadGateway, "Image analysis failed")
}
