package validation

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"valido/internal/outcome"
	"valido/internal/rules"
	"valido/internal/schema/catalog"
	"valido/internal/validation/mocks"
	dErrors "valido/pkg/domain-errors"
	"valido/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite

	ctrl          *gomock.Controller
	mockRules     *mocks.MockRuleSource
	mockPublisher *mocks.MockOutcomePublisher
	engine        *Engine
	logger        *slog.Logger
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockRules = mocks.NewMockRuleSource(s.ctrl)
	s.mockPublisher = mocks.NewMockOutcomePublisher(s.ctrl)
	s.engine = newTestEngine(s.T())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), testNow)
}

func (s *ServiceSuite) TestValidateFileWithDefaultRules() {
	svc := NewService(s.engine, WithLogger(s.logger))
	file := newSUAFile(s.T())

	report, err := svc.ValidateFile(s.ctx(), catalog.FileSUA, file.cleanLines())

	s.Require().NoError(err)
	s.NotEmpty(report.RunID)
	s.Equal(testNow, report.StartedAt)
	s.True(report.Result.Valid)
	s.Equal(4, report.Result.TotalRecords)
}

func (s *ServiceSuite) TestValidateFileLoadsRulesFromSource() {
	reject := &rules.Rule{
		Code:        "SUA-DIAS-CAP",
		Name:        "days capped",
		FileTypes:   []string{catalog.FileSUA},
		RecordTypes: []string{catalog.RecordDetail},
		When:        &rules.Condition{Field: "dias_cotizados", Operator: rules.OpGt, Value: 15},
		Action:      rules.Action{Kind: rules.ActionReject, Message: "too many days"},
	}
	s.Require().NoError(reject.Validate())

	s.mockRules.EXPECT().
		ListForFile(gomock.Any(), catalog.FileSUA).
		Return([]*rules.Rule{reject}, nil)

	svc := NewService(s.engine, WithLogger(s.logger), WithRuleSource(s.mockRules))
	file := newSUAFile(s.T())

	report, err := svc.ValidateFile(s.ctx(), catalog.FileSUA, file.cleanLines())

	s.Require().NoError(err)
	// The fixture detail has 30 days, so the injected rule fires and the
	// built-in pack (which would pass it) is never consulted.
	s.False(report.Result.Valid)
	s.Equal([]string{"SUA-DIAS-CAP"}, report.Result.ViolatedCodes)
}

func (s *ServiceSuite) TestValidateFileEmptyRuleSourceRunsNoRules() {
	s.mockRules.EXPECT().
		ListForFile(gomock.Any(), catalog.FileSUA).
		Return(nil, nil)

	svc := NewService(s.engine, WithLogger(s.logger), WithRuleSource(s.mockRules))
	file := newSUAFile(s.T())
	lines := []string{
		file.header(),
		file.detail(map[string]string{"nss": "12928701651"}), // bad check digit
		file.footer("1", "123450"),
	}

	report, err := svc.ValidateFile(s.ctx(), catalog.FileSUA, lines)

	s.Require().NoError(err)
	// An empty source disables the built-in pack rather than restoring it,
	// so the bad NSS passes.
	s.True(report.Result.Valid)
	s.NotContains(report.Result.ViolatedCodes, "E-SUA-NSS")
	s.Empty(report.Result.Violations)
}

func (s *ServiceSuite) TestValidateFileRuleSourceFailure() {
	s.mockRules.EXPECT().
		ListForFile(gomock.Any(), catalog.FileSUA).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "db down"))

	svc := NewService(s.engine, WithLogger(s.logger), WithRuleSource(s.mockRules))
	file := newSUAFile(s.T())

	_, err := svc.ValidateFile(s.ctx(), catalog.FileSUA, file.cleanLines())

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestValidateFileEmitsOutcome() {
	var captured outcome.Event
	s.mockPublisher.EXPECT().
		Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event outcome.Event) error {
			captured = event
			return nil
		})

	svc := NewService(s.engine, WithLogger(s.logger), WithOutcomePublisher(s.mockPublisher))
	file := newSUAFile(s.T())

	report, err := svc.ValidateFile(s.ctx(), catalog.FileSUA, file.cleanLines())

	s.Require().NoError(err)
	s.Equal(report.RunID, captured.RunID)
	s.Equal(catalog.FileSUA, captured.FileType)
	s.True(captured.Valid)
	s.Equal(4, captured.TotalRecords)
	s.Equal(testNow, captured.OccurredAt)
}

func (s *ServiceSuite) TestValidateFilePublisherFailureIsNonFatal() {
	s.mockPublisher.EXPECT().
		Emit(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeUnavailable, "inbox full"))

	svc := NewService(s.engine, WithLogger(s.logger), WithOutcomePublisher(s.mockPublisher))
	file := newSUAFile(s.T())

	report, err := svc.ValidateFile(s.ctx(), catalog.FileSUA, file.cleanLines())

	s.Require().NoError(err)
	s.True(report.Result.Valid)
}

func (s *ServiceSuite) TestValidateFileUnknownType() {
	svc := NewService(s.engine, WithLogger(s.logger), WithOutcomePublisher(s.mockPublisher))

	_, err := svc.ValidateFile(s.ctx(), "nomina", []string{"01"})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestValidateFileParallelWorkersMatchSequential() {
	file := newSUAFile(s.T())
	lines := file.cleanLines()

	sequential := NewService(s.engine, WithLogger(s.logger))
	parallel := NewService(s.engine, WithLogger(s.logger), WithWorkers(4))

	seqReport, err := sequential.ValidateFile(s.ctx(), catalog.FileSUA, lines)
	s.Require().NoError(err)
	parReport, err := parallel.ValidateFile(s.ctx(), catalog.FileSUA, lines)
	s.Require().NoError(err)

	s.Equal(seqReport.Result, parReport.Result)
}

func (s *ServiceSuite) TestSchemas() {
	svc := NewService(s.engine, WithLogger(s.logger))

	infos := svc.Schemas()

	s.Require().Len(infos, 3)
	s.Equal(catalog.FileDispersion, infos[0].FileType)
	s.Equal(catalog.FileRetenciones, infos[1].FileType)
	s.Equal(catalog.FileSUA, infos[2].FileType)
	for _, info := range infos {
		s.Positive(info.LineLength)
		s.Contains(info.RecordTypes, catalog.RecordDetail)
	}
}
