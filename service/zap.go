package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/zap-planner/common"
	"github.com/vultisig/zap-planner/internal/types"
	"github.com/vultisig/zap-planner/plugin/zap"
)

var ErrInvalidPlanRequest = errors.New("invalid plan request")

type Planner interface {
	Plan(ctx context.Context, req zap.Request) (*zap.Plan, error)
}

// Metrics is the subset of the statsd client the service reports through.
type Metrics interface {
	Count(name string, value int64, tags []string, rate float64) error
	Timing(name string, value time.Duration, tags []string, rate float64) error
}

type ZapService struct {
	planner  Planner
	metrics  Metrics
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewZapService(planner Planner, metrics Metrics, logger *logrus.Logger) (*ZapService, error) {
	if planner == nil {
		return nil, fmt.Errorf("planner cannot be nil")
	}
	return &ZapService{
		planner:  planner,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
	}, nil
}

// Plan turns a request into an executable plan. Routes that cannot be offered right now come
// back as ready=false with a reason; only collaborator failures are returned as errors.
func (s *ZapService) Plan(ctx context.Context, dto types.ZapPlanRequestDto) (*types.ZapPlanResponseDto, error) {
	requestID := uuid.New().String()
	tags := []string{"chain:" + strconv.FormatUint(dto.ChainID, 10)}
	defer s.measureTime("zap.plan.latency", time.Now(), tags)

	req, err := s.toRequest(dto)
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{
		"request_id":   requestID,
		"chain_id":     dto.ChainID,
		"input_token":  dto.InputToken,
		"output_token": dto.OutputToken,
	})

	plan, err := s.planner.Plan(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, zap.ErrInvalidRequest):
			return nil, fmt.Errorf("%w: %v", ErrInvalidPlanRequest, err)
		case zap.IsNotReady(err):
			reason := zap.Reason(err)
			s.incCounter("zap.plan.not_ready", append(tags, "reason:"+reason))
			logger.WithError(err).WithField("reason", reason).Info("zap route not ready")
			return &types.ZapPlanResponseDto{RequestID: requestID, Ready: false, Reason: reason}, nil
		}
		s.incCounter("zap.plan.error", tags)
		logger.WithError(err).Error("fail to plan zap")
		return nil, fmt.Errorf("fail to plan zap: %w", err)
	}

	s.incCounter("zap.plan.ready", append(tags, "strategy:"+string(plan.Strategy)))
	logger.WithFields(logrus.Fields{
		"strategy": plan.Strategy,
		"steps":    len(plan.Route),
	}).Info("zap route ready")
	return &types.ZapPlanResponseDto{
		RequestID: requestID,
		Ready:     true,
		Plan:      toPlanDto(plan),
	}, nil
}

func (s *ZapService) toRequest(dto types.ZapPlanRequestDto) (zap.Request, error) {
	if err := s.validate.Struct(dto); err != nil {
		return zap.Request{}, fmt.Errorf("%w: %v", ErrInvalidPlanRequest, err)
	}
	amount, ok := new(big.Int).SetString(dto.InputAmount, 10)
	if !ok || amount.Sign() <= 0 {
		return zap.Request{}, fmt.Errorf("%w: input_amount must be a positive integer", ErrInvalidPlanRequest)
	}

	req := zap.Request{ChainID: dto.ChainID, InputAmount: amount}
	var err error
	if req.InputToken, err = common.ParseAddress(dto.InputToken); err != nil {
		return zap.Request{}, fmt.Errorf("%w: input_token: %v", ErrInvalidPlanRequest, err)
	}
	if req.OutputToken, err = common.ParseAddress(dto.OutputToken); err != nil {
		return zap.Request{}, fmt.Errorf("%w: output_token: %v", ErrInvalidPlanRequest, err)
	}
	if req.User, err = common.ParseAddress(dto.User); err != nil {
		return zap.Request{}, fmt.Errorf("%w: user: %v", ErrInvalidPlanRequest, err)
	}
	if dto.Recipient != "" {
		if req.Recipient, err = common.ParseAddress(dto.Recipient); err != nil {
			return zap.Request{}, fmt.Errorf("%w: recipient: %v", ErrInvalidPlanRequest, err)
		}
	}
	return req, nil
}

func (s *ZapService) incCounter(name string, tags []string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.Count(name, 1, tags, 1); err != nil {
		s.logger.Errorf("fail to count metric, err: %v", err)
	}
}

func (s *ZapService) measureTime(name string, start time.Time, tags []string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.Timing(name, time.Since(start), tags, 1); err != nil {
		s.logger.Errorf("fail to measure time metric, err: %v", err)
	}
}

func toPlanDto(plan *zap.Plan) *types.ZapPlanDto {
	cfg := types.ZapConfigDto{
		User:      plan.Config.User.Hex(),
		Recipient: plan.Config.Recipient.Hex(),
	}
	for _, in := range plan.Config.Inputs {
		cfg.Inputs = append(cfg.Inputs, types.TokenAmountDto{Token: in.Token.Hex(), Amount: in.Amount.String()})
	}
	for _, out := range plan.Config.Outputs {
		cfg.Outputs = append(cfg.Outputs, types.TokenAmountDto{Token: out.Token.Hex(), Amount: out.MinOutputAmount.String()})
	}

	route := make([]types.RouteStepDto, 0, len(plan.Route))
	for _, step := range plan.Route {
		bindings := make([]types.TokenBindingDto, 0, len(step.TokenBindings))
		for _, b := range step.TokenBindings {
			bindings = append(bindings, types.TokenBindingDto{Token: b.Token.Hex(), Index: b.Index()})
		}
		route = append(route, types.RouteStepDto{
			Kind:     string(step.Kind),
			Target:   step.Target.Hex(),
			Value:    step.Value.String(),
			Data:     hexutil.Encode(step.Data),
			Bindings: bindings,
		})
	}

	return &types.ZapPlanDto{
		Strategy: string(plan.Strategy),
		Router:   plan.Router.Hex(),
		Value:    plan.Value.String(),
		Calldata: hexutil.Encode(plan.Calldata),
		AmountOut: types.AmountOutDto{
			Expected: plan.AmountOut.Expected.String(),
			Min:      plan.AmountOut.Min.String(),
		},
		Config: cfg,
		Route:  route,
	}
}
