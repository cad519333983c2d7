package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shiftSlots are the two fixed daily shifts.
var shiftSlots = []struct {
	Label string
	Hour  int
}{
	{Label: "shift 1", Hour: 10},
	{Label: "shift 2", Hour: 16},
}

const (
	secretLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	secretDigits  = "0123456789"
)

// ShiftInfo is the public view of a shift. SecretCode is only filled for
// staff facing responses.
type ShiftInfo struct {
	ShiftID    uint      `json:"shift_id"`
	Label      string    `json:"label,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	SecretCode string    `json:"secret_code,omitempty"`
}

type ShiftGenerationResult struct {
	Message string      `json:"message"`
	Created []ShiftInfo `json:"created"`
}

type ShiftService struct {
	db      *gorm.DB
	log     *logrus.Logger
	clock   Clock
	newCode func() (string, error)
}

func NewShiftService(db *gorm.DB, log *logrus.Logger, clock Clock) *ShiftService {
	return &ShiftService{
		db:      db,
		log:     log,
		clock:   clock,
		newCode: GenerateSecretCode,
	}
}

// GenerateSecretCode returns three uppercase letters followed by three digits.
func GenerateSecretCode() (string, error) {
	var sb strings.Builder
	for _, set := range []string{secretLetters, secretLetters, secretLetters, secretDigits, secretDigits, secretDigits} {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return "", fmt.Errorf("generate secret code: %w", err)
		}
		sb.WriteByte(set[n.Int64()])
	}
	return sb.String(), nil
}

func shiftLabel(start time.Time) string {
	for _, slot := range shiftSlots {
		if start.Hour() == slot.Hour && start.Minute() == 0 {
			return slot.Label
		}
	}
	return ""
}

func toShiftInfo(shift models.Shift, withCode bool) ShiftInfo {
	info := ShiftInfo{
		ShiftID:   shift.ShiftID,
		Label:     shiftLabel(shift.StartTime),
		StartTime: shift.StartTime,
		EndTime:   shift.EndTime,
	}
	if withCode {
		info.SecretCode = shift.SecretCode
	}
	return info
}

// CreateShiftsForToday makes sure both shifts of the current local day exist.
// It is idempotent; when nothing is missing it reports "nothing to do", or
// fails with Conflict if raiseIfFull is set.
func (s *ShiftService) CreateShiftsForToday(ctx context.Context, raiseIfFull bool) (*ShiftGenerationResult, error) {
	today := s.clock.StartOfDay(s.clock.Now())
	result := &ShiftGenerationResult{Created: []ShiftInfo{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, slot := range shiftSlots {
			start := s.clock.At(today, slot.Hour, 0)

			var count int64
			if err := tx.Model(&models.Shift{}).Where("start_time = ?", start).Count(&count).Error; err != nil {
				return utils.Internal(err, "failed to look up shifts")
			}
			if count > 0 {
				continue
			}

			code, err := s.newCode()
			if err != nil {
				return utils.Internal(err, "failed to generate secret code")
			}
			shift := models.NewShift(start, code)
			if err := tx.Create(&shift).Error; err != nil {
				if isDuplicateKey(err) {
					return utils.Conflict("%s of %s collides with an existing shift", slot.Label, today.Format("2006-01-02"))
				}
				return utils.Internal(err, "failed to create shift")
			}
			result.Created = append(result.Created, toShiftInfo(shift, true))
		}

		if len(result.Created) == 0 && raiseIfFull {
			return utils.Conflict("today's shifts already exist")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Created) == 0 {
		result.Message = "nothing to do"
		return result, nil
	}

	labels := make([]string, 0, len(result.Created))
	for _, info := range result.Created {
		labels = append(labels, info.Label)
	}
	result.Message = fmt.Sprintf("created %s for %s", strings.Join(labels, " and "), today.Format("2006-01-02"))
	s.log.WithField("shifts", labels).Info("Shifts created")
	return result, nil
}

// CurrentShift returns the shift whose window contains now.
func (s *ShiftService) CurrentShift(ctx context.Context) (*models.Shift, error) {
	now := s.clock.Now()

	var shift models.Shift
	err := s.db.WithContext(ctx).
		Where("start_time <= ? AND end_time > ?", now, now).
		Order("start_time").
		First(&shift).Error
	if err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("no active shift at %s", now.Format("15:04"))
		}
		return nil, utils.Internal(err, "failed to load current shift")
	}
	return &shift, nil
}

// CurrentShiftSecretCode returns the active shift including its secret code.
func (s *ShiftService) CurrentShiftSecretCode(ctx context.Context) (*ShiftInfo, error) {
	shift, err := s.CurrentShift(ctx)
	if err != nil {
		return nil, err
	}
	info := toShiftInfo(*shift, true)
	return &info, nil
}

// ValidateSecretCode returns the id of the active shift holding code.
func (s *ShiftService) ValidateSecretCode(ctx context.Context, code string) (uint, error) {
	now := s.clock.Now()
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, utils.Forbidden("secret code is required")
	}

	var shift models.Shift
	err := s.db.WithContext(ctx).Where("secret_code = ?", code).First(&shift).Error
	if err != nil {
		if isNotFound(err) {
			return 0, utils.Forbidden("invalid or expired secret code")
		}
		return 0, utils.Internal(err, "failed to validate secret code")
	}
	if !shift.Contains(now) {
		return 0, utils.Forbidden("invalid or expired secret code")
	}
	return shift.ShiftID, nil
}

// ListShiftsFromToday returns today's and later shifts without their codes.
func (s *ShiftService) ListShiftsFromToday(ctx context.Context) ([]ShiftInfo, error) {
	today := s.clock.StartOfDay(s.clock.Now())

	var shifts []models.Shift
	if err := s.db.WithContext(ctx).Where("start_time >= ?", today).Order("start_time").Find(&shifts).Error; err != nil {
		return nil, utils.Internal(err, "failed to list shifts")
	}

	infos := make([]ShiftInfo, 0, len(shifts))
	for _, shift := range shifts {
		infos = append(infos, toShiftInfo(shift, false))
	}
	return infos, nil
}

// LoginEmployee checks a secret code and returns the shift it belongs to.
func (s *ShiftService) LoginEmployee(ctx context.Context, code string) (*ShiftInfo, error) {
	shiftID, err := s.ValidateSecretCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var shift models.Shift
	if err := s.db.WithContext(ctx).First(&shift, shiftID).Error; err != nil {
		return nil, utils.Internal(err, "failed to load shift")
	}
	info := toShiftInfo(shift, false)
	return &info, nil
}
