package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/cropguard/internal/classifier"
	"github.com/example/cropguard/internal/decision"
	"github.com/example/cropguard/internal/logging"
	"github.com/example/cropguard/internal/preprocess"
	"github.com/example/cropguard/internal/repository"
)

// ErrNoFiles reports an upload request that carried no usable image files.
var ErrNoFiles = errors.New("no image files uploaded")

// PredictionStore defines the persistence operations needed by the pipeline.
type PredictionStore interface {
	Record(ctx context.Context, p *repository.Prediction) error
	ListByUser(ctx context.Context, userID uint) ([]repository.Prediction, error)
	ClearUser(ctx context.Context, userID uint) error
}

// UploadedFile is one file from a multipart upload.
type UploadedFile struct {
	Name string
	Data []byte
}

// PredictionUseCase orchestrates the per-image pipeline: decode, preprocess,
// classify, decide, persist.
type PredictionUseCase struct {
	store          PredictionStore
	model          classifier.Classifier
	cache          Cache
	logger         *zap.Logger
	historyTTL     time.Duration
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewPredictionUseCase constructs a new use case instance. cache may be nil
// when no Redis instance is configured.
func NewPredictionUseCase(store PredictionStore, model classifier.Classifier, cache Cache, logger *zap.Logger) *PredictionUseCase {
	return &PredictionUseCase{
		store:          store,
		model:          model,
		cache:          cache,
		logger:         logger.Named("prediction_usecase"),
		historyTTL:     5 * time.Minute,
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// ProcessBatch runs every uploaded file through the pipeline sequentially.
// Each image commits independently; the first failure aborts the remaining
// files and is returned, while records already committed in this batch stay.
// The returned count is the number of committed predictions.
func (uc *PredictionUseCase) ProcessBatch(ctx context.Context, userID uint, files []UploadedFile) (int, error) {
	if len(files) == 0 || files[0].Name == "" {
		return 0, ErrNoFiles
	}

	batchID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.process_batch", batchID)
	opLogger.Info("processing upload batch",
		zap.Uint("user_id", userID),
		zap.Int("files", len(files)))

	processed := 0
	defer func() {
		if processed > 0 {
			uc.invalidateHistory(ctx, batchID, userID)
		}
	}()

	for _, file := range files {
		if err := uc.processOne(ctx, userID, batchID, file); err != nil {
			opLogger.Error("batch aborted",
				zap.String("file", file.Name),
				zap.Int("committed", processed),
				zap.Error(err))
			return processed, err
		}
		processed++
	}
	return processed, nil
}

func (uc *PredictionUseCase) processOne(ctx context.Context, userID uint, batchID string, file UploadedFile) error {
	img, err := preprocess.Decode(file.Data)
	if err != nil {
		return logging.NewOperationError("usecase.decode_image", batchID, err)
	}

	scores, err := uc.model.Predict(ctx, preprocess.ToTensor(img))
	if err != nil {
		return logging.NewOperationError("usecase.classify", batchID, err)
	}

	outcome, err := decision.Decide(scores)
	if err != nil {
		return logging.NewOperationError("usecase.decide", batchID, err)
	}

	encoded, err := preprocess.EncodePNG(img)
	if err != nil {
		return logging.NewOperationError("usecase.encode_image", batchID, err)
	}

	prediction := &repository.Prediction{
		UserID:            userID,
		ImageData:         preprocess.EncodeBase64(encoded),
		DiseaseClass:      outcome.Label,
		ConfidencePercent: outcome.Confidence,
		Recommendation:    outcome.Recommendation,
	}
	if err := uc.store.Record(ctx, prediction); err != nil {
		return logging.NewOperationError("usecase.record_prediction", batchID, err)
	}

	uc.logger.Info("prediction recorded",
		zap.Uint("user_id", userID),
		zap.String("label", outcome.Label),
		zap.Float64("confidence", outcome.Confidence))
	return nil
}

// History returns the user's predictions, newest first, consulting the cache
// before the store. Cache failures degrade to a direct store read.
func (uc *PredictionUseCase) History(ctx context.Context, userID uint) ([]repository.Prediction, error) {
	cacheKey := historyKey(userID)
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, cacheKey)
		if err == nil {
			var predictions []repository.Prediction
			if err := json.Unmarshal([]byte(cached), &predictions); err == nil {
				return predictions, nil
			}
			logging.WithOperation(uc.logger, "usecase.history", "").Warn("discarding undecodable cached history", zap.Error(err))
		} else if !errors.Is(err, redis.Nil) {
			logging.WithOperation(uc.logger, "usecase.history", "").Warn("history cache read failed", zap.Error(err))
		}
	}

	predictions, err := uc.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, logging.NewOperationError("usecase.list_history", "", err)
	}

	if uc.cache != nil {
		if serialized, err := json.Marshal(predictions); err == nil {
			if err := uc.withCacheRetry(ctx, "cache.set.history", func() error {
				return uc.cache.Set(ctx, cacheKey, string(serialized), uc.historyTTL)
			}); err != nil {
				logging.WithOperation(uc.logger, "usecase.history", "").Warn("history cache write failed", zap.Error(err))
			}
		}
	}
	return predictions, nil
}

// ClearHistory deletes every prediction the user owns. Clearing an empty
// history succeeds.
func (uc *PredictionUseCase) ClearHistory(ctx context.Context, userID uint) error {
	if err := uc.store.ClearUser(ctx, userID); err != nil {
		return logging.NewOperationError("usecase.clear_history", "", err)
	}
	uc.invalidateHistory(ctx, "", userID)
	return nil
}

func (uc *PredictionUseCase) invalidateHistory(ctx context.Context, requestID string, userID uint) {
	if uc.cache == nil {
		return
	}
	if err := uc.withCacheRetry(ctx, "cache.del.history", func() error {
		return uc.cache.Del(ctx, historyKey(userID))
	}); err != nil {
		logging.WithOperation(uc.logger, "usecase.invalidate_history", requestID).Warn("history cache invalidation failed", zap.Error(err))
	}
}

func historyKey(userID uint) string {
	return fmt.Sprintf("history:%d", userID)
}

func (uc *PredictionUseCase) withCacheRetry(ctx context.Context, operation string, fn func() error) error {
	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, "")
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, "", ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("cache operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == uc.retryAttempts-1 {
			return logging.NewOperationError(operation, "", err)
		}
		opLogger.Warn("transient cache error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, "", err)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
