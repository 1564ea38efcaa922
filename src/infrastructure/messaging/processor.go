package messaging

import (
	"context"
	"sort"
	"time"

	"go-campaign-dispatcher/src/domain/campaign"
	"go-campaign-dispatcher/src/domain/delivery"
	"go-campaign-dispatcher/src/domain/message"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DeliveryEventWriter persists per-message outcomes of a batch.
type DeliveryEventWriter interface {
	Create(ctx context.Context, event *delivery.Event) error
}

// Orchestrator fans a campaign out over the country queues and collects per-contact results.
type Orchestrator struct {
	registry   *QueueRegistry
	dispatcher MessageDispatcher
	events     DeliveryEventWriter
	Logger     *logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewOrchestrator(
	registry *QueueRegistry,
	dispatcher MessageDispatcher,
	events DeliveryEventWriter,
	loggerInstance *logger.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		dispatcher: dispatcher,
		events:     events,
		Logger:     loggerInstance,
		metrics:    m,
		now:        time.Now,
	}
}

// DispatchCampaign runs the batch to completion. Cancelling ctx does not stop a batch
// that has started; per-contact failures only show up in the result.
func (o *Orchestrator) DispatchCampaign(ctx context.Context, batch campaign.Batch) *campaign.BatchResult {
	started := o.now()
	runCtx := context.WithoutCancel(ctx)

	eligible := eligibleContacts(batch.Contacts, batch.Tag, batch.Limit)
	results := make([]campaign.ContactResult, len(eligible))
	partitions := partitionByCountry(eligible)

	o.Logger.Info("Dispatching campaign",
		zap.String("campaignID", batch.CampaignID),
		zap.Int("eligible", len(eligible)),
		zap.Int("countries", len(partitions)),
		zap.Bool("dryRun", batch.DryRun))

	codes := make([]string, 0, len(partitions))
	for code := range partitions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var g errgroup.Group
	for _, code := range codes {
		indexes := partitions[code]
		g.Go(func() error {
			queue := o.registry.Get(runCtx, code)
			for _, i := range indexes {
				queue.Enqueue(func() {
					// each task owns slot i of results
					results[i] = o.process(runCtx, batch, code, eligible[i])
				})
			}
			return queue.Idle(runCtx)
		})
	}
	if err := g.Wait(); err != nil {
		o.Logger.Error("Waiting for country queues failed", zap.String("campaignID", batch.CampaignID), zap.Error(err))
	}

	result := &campaign.BatchResult{Total: len(eligible), Results: results}
	for _, r := range results {
		if r.OK {
			result.Sent++
		}
	}
	result.Failed = result.Total - result.Sent

	o.metrics.ObserveCampaign(o.now().Sub(started))
	o.Logger.Info("Campaign dispatched",
		zap.String("campaignID", batch.CampaignID),
		zap.Int("total", result.Total),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	return result
}

func (o *Orchestrator) process(ctx context.Context, batch campaign.Batch, code string, contact campaign.Contact) campaign.ContactResult {
	result := campaign.ContactResult{Phone: contact.Phone, DryRun: batch.DryRun}

	if batch.DryRun {
		result.OK = true
		o.metrics.ObserveMessage(code, string(delivery.StatusDryRun))
		if batch.CampaignID != "" {
			o.persist(ctx, &delivery.Event{
				CampaignID: &batch.CampaignID,
				Phone:      contact.Phone,
				Status:     delivery.StatusDryRun,
				Timestamp:  o.now(),
			})
		}
		return result
	}

	messageID, attempts, err := o.dispatcher.Dispatch(ctx, message.OutboundMessage{
		Phone:        contact.Phone,
		BodyText:     batch.BodyText,
		TemplateName: batch.Template.Name,
		LanguageCode: batch.Template.LanguageCode,
		Components:   batch.Components,
	})
	if err != nil {
		result.Error = err.Error()
		o.metrics.ObserveMessage(code, string(delivery.StatusFailed))
		if batch.CampaignID != "" {
			detail := err.Error()
			o.persist(ctx, &delivery.Event{
				CampaignID:   &batch.CampaignID,
				Phone:        contact.Phone,
				Status:       delivery.StatusFailed,
				ErrorMessage: &detail,
				Timestamp:    o.now(),
			})
		}
		return result
	}

	result.OK = true
	result.MessageID = messageID
	o.metrics.ObserveMessage(code, string(delivery.StatusSent))
	o.Logger.Debug("Message sent",
		zap.String("phone", contact.Phone),
		zap.String("messageID", messageID),
		zap.Int("attempts", attempts))
	if batch.CampaignID != "" && messageID != "" {
		id := messageID
		o.persist(ctx, &delivery.Event{
			CampaignID: &batch.CampaignID,
			Phone:      contact.Phone,
			MessageID:  &id,
			Status:     delivery.StatusSent,
			Timestamp:  o.now(),
		})
	}
	return result
}

func (o *Orchestrator) persist(ctx context.Context, event *delivery.Event) {
	if err := o.events.Create(ctx, event); err != nil {
		o.Logger.Error("Failed to store delivery event",
			zap.String("phone", event.Phone),
			zap.String("status", string(event.Status)),
			zap.Error(err))
	}
}

// eligibleContacts keeps opted-in contacts with a phone, optionally matching tag, up to limit.
func eligibleContacts(contacts []campaign.Contact, tag string, limit int) []campaign.Contact {
	if limit <= 0 {
		return []campaign.Contact{}
	}
	eligible := make([]campaign.Contact, 0, min(len(contacts), limit))
	for _, c := range contacts {
		if len(eligible) == limit {
			break
		}
		if !c.OptedIn || c.Phone == "" || !c.HasTag(tag) {
			continue
		}
		eligible = append(eligible, c)
	}
	return eligible
}

// partitionByCountry maps calling code to indexes into contacts, in input order.
func partitionByCountry(contacts []campaign.Contact) map[string][]int {
	partitions := make(map[string][]int)
	for i, c := range contacts {
		code := CallingCode(c.Phone)
		partitions[code] = append(partitions[code], i)
	}
	return partitions
}
