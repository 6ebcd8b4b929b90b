package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hatchery/internal/domain/models"
	"github.com/mamadbah2/hatchery/internal/repository"
	"github.com/mamadbah2/hatchery/internal/service/incubation"
	"github.com/mamadbah2/hatchery/internal/service/reporting"
	"github.com/mamadbah2/hatchery/internal/trajectory"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const minPrefixLen = 4

// HelpText lists the supported commands.
const HelpText = "Commands:\n" +
	"weight <egg> <day> <grams|clear>\n" +
	"status <egg>\n" +
	"pinholes <egg>\n" +
	"digest"

// EggPipeline is the part of the incubation service the dispatcher drives.
type EggPipeline interface {
	ListEggs(ctx context.Context) ([]models.Egg, error)
	GetEgg(ctx context.Context, id string) (models.Egg, error)
	RecordWeights(ctx context.Context, id string, edits []incubation.WeightEdit) (models.Egg, error)
	RecommendFor(ctx context.Context, egg models.Egg) (trajectory.RecommendationResult, error)
}

// DigestReporter renders the daily digest.
type DigestReporter interface {
	DailyDigest(ctx context.Context, now time.Time) (string, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	eggs      EggPipeline
	reporting DigestReporter
	logger    *zap.Logger
	now       func() time.Time
}

var _ Dispatcher = (*Service)(nil)

// NewService constructs a command dispatcher.
func NewService(eggs EggPipeline, reporting DigestReporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		eggs:      eggs,
		reporting: reporting,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleCommand runs cmd and returns the reply for sender.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandWeight:
		return s.handleWeight(ctx, cmd)
	case models.CommandStatus:
		egg, err := s.resolveEgg(ctx, cmd)
		if err != nil {
			return "", err
		}
		return s.status(egg)
	case models.CommandPinHoles:
		egg, err := s.resolveEgg(ctx, cmd)
		if err != nil {
			return "", err
		}
		return s.pinHoles(ctx, egg)
	case models.CommandDigest:
		if s.reporting == nil {
			return "", ErrUnsupportedCommand
		}
		return s.reporting.DailyDigest(ctx, s.now())
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) handleWeight(ctx context.Context, cmd models.Command) (string, error) {
	if len(cmd.Args) < 3 {
		return "", ErrInvalidArguments
	}
	day, err := strconv.Atoi(cmd.Args[1])
	if err != nil {
		return "", ErrInvalidArguments
	}
	weight, err := parseGrams(cmd.Args[2])
	if err != nil {
		return "", err
	}

	egg, err := s.resolveEgg(ctx, cmd)
	if err != nil {
		return "", err
	}
	egg, err = s.eggs.RecordWeights(ctx, egg.ID, []incubation.WeightEdit{{Day: day, Weight: weight}})
	if err != nil {
		return "", err
	}

	rec := egg.DailyWeights[day]
	message := fmt.Sprintf("%s day %d cleared.", egg.Name, day)
	if weight != nil {
		message = fmt.Sprintf("%s day %d: %.2f g recorded (target %.2f g).", egg.Name, day, *rec.Weight, rec.TargetWeight)
	}
	last := egg.DailyWeights[egg.DailyWeights.TotalDays()]
	if last.Weight != nil && last.Interpolated {
		message += fmt.Sprintf("\nProjected day %d: %.2f g vs %.2f g target.", last.Day, *last.Weight, last.TargetWeight)
	}
	return message, nil
}

func parseGrams(arg string) (*float64, error) {
	arg = strings.TrimSuffix(strings.ToLower(arg), "g")
	if arg == "clear" || arg == "-" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(arg, ",", "."), 64)
	if err != nil {
		return nil, ErrInvalidArguments
	}
	return &v, nil
}

// resolveEgg finds the egg named by the first argument, by full id or by a
// unique id prefix.
func (s *Service) resolveEgg(ctx context.Context, cmd models.Command) (models.Egg, error) {
	if len(cmd.Args) == 0 {
		return models.Egg{}, ErrInvalidArguments
	}
	ref := cmd.Args[0]

	egg, err := s.eggs.GetEgg(ctx, ref)
	if err == nil {
		return egg, nil
	}
	if !errors.Is(err, repository.ErrNotFound) || len(ref) < minPrefixLen {
		return models.Egg{}, err
	}

	eggs, err := s.eggs.ListEggs(ctx)
	if err != nil {
		return models.Egg{}, err
	}
	var match *models.Egg
	for i := range eggs {
		if !strings.HasPrefix(strings.ToLower(eggs[i].ID), strings.ToLower(ref)) {
			continue
		}
		if match != nil {
			return models.Egg{}, fmt.Errorf("%w: egg %q is ambiguous", ErrInvalidArguments, ref)
		}
		match = &eggs[i]
	}
	if match == nil {
		return models.Egg{}, repository.ErrNotFound
	}
	// reload so a missing series gets initialised
	return s.eggs.GetEgg(ctx, match.ID)
}

func (s *Service) status(egg models.Egg) (string, error) {
	overview, err := incubation.OverviewOf(egg, s.now())
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]: %d%% done, %d days to hatch (%s).",
		egg.Name, reporting.ShortID(egg.ID), overview.Progress.Percent, overview.Progress.DaysRemaining, overview.Progress.HatchDate)
	if overview.LatestDay == 0 || overview.Latest == nil {
		b.WriteString("\nNo weighing recorded yet.")
		return b.String(), nil
	}

	latest := overview.Latest
	fmt.Fprintf(&b, "\nDay %d: %.2f g (target %.2f g)", latest.Day, *latest.Weight, latest.TargetWeight)
	if dev := overview.Deviations[latest.Day]; dev != trajectory.DeviationNone {
		fmt.Fprintf(&b, ", %s", dev)
	}
	b.WriteString(".")
	return b.String(), nil
}

func (s *Service) pinHoles(ctx context.Context, egg models.Egg) (string, error) {
	res, err := s.eggs.RecommendFor(ctx, egg)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(res.Message)
	if res.Status == trajectory.StatusRecommended || res.Status == trajectory.StatusNoCandidates {
		fmt.Fprintf(&b, "\nProjected %.2f g vs target %.2f g (gap %.2f g).", res.ProjectedEndWeight, res.TargetEndWeight, res.WeightGap)
	}
	for _, rec := range res.Recommendations {
		fmt.Fprintf(&b, "\nDay %d: %s (-%.2f g)", rec.Day, rec.Type.Name, rec.Effect)
	}
	if len(res.Recommendations) > 0 {
		fmt.Fprintf(&b, "\nRemaining gap %.2f g.", res.ResidualGap)
	}
	return b.String(), nil
}
