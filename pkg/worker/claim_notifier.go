package worker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/email"
	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/repository"
	"github.com/medilink/pharmacare-api/pkg/logger"
	"github.com/medilink/pharmacare-api/pkg/messaging"
)

// ClaimNotifier emails the insurer contact whenever a pharmacy submits a
// claim report. It consumes the claim.submitted channel the outbox
// processor publishes to.
type ClaimNotifier struct {
	broker    messaging.Broker
	companies repository.CompanyRepository
	mailer    email.Service
	logger    *logger.Logger
}

func NewClaimNotifier(broker messaging.Broker, companies repository.CompanyRepository, mailer email.Service, logger *logger.Logger) *ClaimNotifier {
	return &ClaimNotifier{
		broker:    broker,
		companies: companies,
		mailer:    mailer,
		logger:    logger,
	}
}

type claimSubmittedPayload struct {
	InsuranceCompanyID uuid.UUID `json:"insurance_company_id"`
	TotalAmount        float64   `json:"total_amount"`
	ItemCount          int       `json:"item_count"`
}

func (n *ClaimNotifier) Start(ctx context.Context) error {
	messages, err := n.broker.Subscribe(ctx, model.EventClaimSubmitted)
	if err != nil {
		return err
	}

	n.logger.Info("Starting claim notifier")
	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Shutting down claim notifier")
			return nil
		case raw, ok := <-messages:
			if !ok {
				return nil
			}
			n.handle(ctx, raw)
		}
	}
}

func (n *ClaimNotifier) handle(ctx context.Context, raw []byte) {
	var payload claimSubmittedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		n.logger.Error(err, "Failed to decode claim.submitted payload")
		return
	}

	company, err := n.companies.Get(ctx, payload.InsuranceCompanyID)
	if err != nil {
		n.logger.Error(err, "Failed to load insurance company",
			"company_id", payload.InsuranceCompanyID.String())
		return
	}

	if err := n.mailer.SendClaimSubmitted(ctx, company.ContactEmail, company.Name, payload.TotalAmount, payload.ItemCount); err != nil {
		n.logger.Error(err, "Failed to notify insurer", "company_id", company.ID.String())
	}
}
