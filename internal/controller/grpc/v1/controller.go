package v1

import (
	cntextv1 "github.com/RXLU5x/translate-image-text-cloud/api/cntext/v1"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"google.golang.org/grpc"
)

type V1 struct {
	cntextv1.UnimplementedCNTextServer

	sessions    usecase.SessionUseCase
	submissions usecase.SubmissionUseCase
	ingestion   usecase.IngestionUseCase
	logger      logger.Interface
}

func NewCNTextRoutes(
	s grpc.ServiceRegistrar,
	sessions usecase.SessionUseCase,
	submissions usecase.SubmissionUseCase,
	ingestion usecase.IngestionUseCase,
	l logger.Interface,
) {
	r := &V1{
		sessions:    sessions,
		submissions: submissions,
		ingestion:   ingestion,
		logger:      l,
	}

	cntextv1.RegisterCNTextServer(s, r)
}
