package pipeline

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/privacy-cli/internal/fetcher"
	"github.com/sells-group/privacy-cli/internal/publish"
	"github.com/sells-group/privacy-cli/internal/record"
	"github.com/sells-group/privacy-cli/internal/render"
	"github.com/sells-group/privacy-cli/internal/resilience"
	"github.com/sells-group/privacy-cli/internal/table"
)

var (
	// ErrNoID is returned when no order identifier was supplied.
	ErrNoID = eris.New("pipeline: no order identifier supplied")
	// ErrNoData is returned when the table yielded no records.
	ErrNoData = eris.New("pipeline: no records retrieved")
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindNone Kind = iota
	KindNoID
	KindNoData
	KindTransport
	KindDecode
	KindNotFound
	KindTemplateDrift
	KindTemplateMissing
	KindPublish
	KindOther
)

var kindNames = map[Kind]string{
	KindNone:            "none",
	KindNoID:            "no_id",
	KindNoData:          "no_data",
	KindTransport:       "transport",
	KindDecode:          "decode",
	KindNotFound:        "not_found",
	KindTemplateDrift:   "template_drift",
	KindTemplateMissing: "template_missing",
	KindPublish:         "publish",
	KindOther:           "other",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Classify maps err to its failure kind. Decode sentinels are checked
// before transport failures since both arrive through the table client.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	switch {
	case eris.Is(err, ErrNoID):
		return KindNoID
	case eris.Is(err, record.ErrEnvelope),
		eris.Is(err, record.ErrBase64),
		eris.Is(err, record.ErrDecompress),
		eris.Is(err, record.ErrUTF8),
		eris.Is(err, record.ErrJSON):
		return KindDecode
	case eris.Is(err, render.ErrTemplateNotFound):
		return KindTemplateMissing
	case eris.Is(err, publish.ErrPublish):
		return KindPublish
	case eris.Is(err, ErrNoData), eris.Is(err, table.ErrNoSource):
		return KindNoData
	case errors.Is(err, context.Canceled):
		return KindOther
	}

	var se *fetcher.StatusError
	if errors.As(err, &se) || resilience.IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	return KindOther
}

// Exit codes returned by the run command.
const (
	ExitOK              = 0
	ExitNoData          = 1
	ExitNoID            = 2
	ExitDecode          = 3
	ExitTemplateMissing = 4
	ExitPublish         = 5
	ExitOther           = 6
)

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch Classify(err) {
	case KindNone:
		return ExitOK
	case KindNoData, KindTransport:
		return ExitNoData
	case KindNoID:
		return ExitNoID
	case KindDecode:
		return ExitDecode
	case KindTemplateMissing:
		return ExitTemplateMissing
	case KindPublish:
		return ExitPublish
	default:
		return ExitOther
	}
}
