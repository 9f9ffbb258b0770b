package ingest

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/address"
	commdomain "github.com/leaseline/leaseline/internal/comm/domain"
	"github.com/leaseline/leaseline/internal/dedup"
	"github.com/leaseline/leaseline/internal/notify"
	"github.com/leaseline/leaseline/internal/observability/metrics"
	partydomain "github.com/leaseline/leaseline/internal/party/domain"
	persondomain "github.com/leaseline/leaseline/internal/person/domain"
	programdomain "github.com/leaseline/leaseline/internal/program/domain"
	queuedomain "github.com/leaseline/leaseline/internal/queue/domain"
	pkgdb "github.com/leaseline/leaseline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ProcessorParams struct {
	fx.In

	Log      *zap.Logger
	Dedup    dedup.Store
	Lock     OriginatorLock
	Programs programdomain.Service
	Persons  persondomain.Service
	Parties  partydomain.Service
	Comms    commdomain.Service
	Notify   notify.Publisher
	Metrics  *metrics.Metrics
}

// Processor runs one queued event through the pipeline: dedup, spam gate,
// route resolution, identity and party resolution, thread assignment,
// persistence, notification.
type Processor struct {
	log      *zap.Logger
	dedup    dedup.Store
	lock     OriginatorLock
	programs programdomain.Service
	persons  persondomain.Service
	parties  partydomain.Service
	comms    commdomain.Service
	notify   notify.Publisher
	metrics  *metrics.Metrics
}

func NewProcessor(p ProcessorParams) *Processor {
	return &Processor{
		log:      p.Log.Named("ingest.processor"),
		dedup:    p.Dedup,
		lock:     p.Lock,
		programs: p.Programs,
		persons:  p.Persons,
		parties:  p.Parties,
		comms:    p.Comms,
		notify:   p.Notify,
		metrics:  p.Metrics,
	}
}

func (p *Processor) Process(ctx context.Context, event queuedomain.InboundEvent) Outcome {
	admitted := false
	outcome := p.process(ctx, event, &admitted)

	// a transient failure after admission must not turn the redelivery into
	// a duplicate drop
	if outcome.Kind == KindTransient && admitted {
		if err := p.dedup.Forget(ctx, event.TenantID, event.MessageID); err != nil {
			p.log.Warn("dedup forget failed",
				zap.String("tenant_id", event.TenantID.String()),
				zap.String("message_id", event.MessageID),
				zap.Error(err),
			)
		}
	}
	return outcome
}

func (p *Processor) process(ctx context.Context, event queuedomain.InboundEvent, admitted *bool) Outcome {
	if !event.Channel.Valid() {
		return Permanent(ReasonMalformed, errors.New("unknown channel"))
	}
	var payload queuedomain.Payload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return Permanent(ReasonMalformed, err)
	}
	payload.From = address.Normalize(payload.From)
	payload.To = address.Normalize(payload.To)
	if payload.From == "" || payload.To == "" || event.MessageID == "" {
		return Permanent(ReasonMalformed, errors.New("missing originator, destination or message id"))
	}

	ok, err := p.dedup.Admit(ctx, event.TenantID, event.MessageID)
	if err != nil {
		return Transient(ReasonDedupDown, err)
	}
	if !ok {
		// admitted before: either fully processed, or a worker died between
		// admit and persist. The stored communication tells the two apart.
		existing, err := p.comms.Find(ctx, event.TenantID, event.MessageID)
		if err != nil {
			return Transient(ReasonStorage, err)
		}
		if existing != nil {
			p.metrics.Duplicates.Inc()
			return Success(ReasonDuplicate)
		}
	} else {
		*admitted = true
	}

	release, acquired, err := p.lock.Acquire(ctx, event.TenantID, payload.From)
	if err != nil {
		return Transient(ReasonLockDown, err)
	}
	if !acquired {
		p.metrics.LockContention.Inc()
		return Transient(ReasonLockHeld, nil)
	}
	defer release(ctx)

	contactType := contactTypeFor(event.Channel, payload.From)

	spam, err := p.persons.IsSpamSource(ctx, event.TenantID, contactType, payload.From)
	if err != nil {
		return Transient(ReasonStorage, err)
	}
	if spam {
		if err := p.comms.RecordSpam(ctx, event.TenantID, event.MessageID, payload.From, event.Channel, event.Payload); err != nil {
			return Transient(ReasonStorage, err)
		}
		p.metrics.SpamDropped.Inc()
		return Success(ReasonSpam)
	}

	route, err := p.programs.Resolve(ctx, event.TenantID, payload.To)
	if err != nil {
		if errors.Is(err, programdomain.ErrRouteRejected) {
			return Permanent(ReasonRouteRejected, err)
		}
		return Transient(ReasonStorage, err)
	}

	identities, err := p.persons.ResolveIdentities(ctx, event.TenantID, contactType, payload.From)
	if err != nil {
		return Transient(ReasonStorage, err)
	}

	resolution, err := p.parties.Assign(ctx, partydomain.AssignRequest{
		TenantID:    event.TenantID,
		Route:       route,
		Identities:  identities,
		ContactType: contactType,
		FromAddress: payload.From,
		FromName:    payload.FromName,
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// lost a creation race despite the lock; redelivery re-resolves
			// against the winner's rows
			return Transient(ReasonAssignRace, err)
		}
		if errors.Is(err, partydomain.ErrTeamNotFound) {
			return Permanent(ReasonTeamNotFound, err)
		}
		return Transient(ReasonStorage, err)
	}

	personIDs := make([]snowflake.ID, 0, len(resolution.Persons))
	for _, person := range resolution.Persons {
		personIDs = append(personIDs, person.ID)
	}
	threadID := commdomain.ComputeThreadID(event.Channel, personIDs)

	programID, fallbackID := route.RecordedIDs()
	comm, created, err := p.comms.Record(ctx, commdomain.RecordRequest{
		TenantID:                      event.TenantID,
		Channel:                       event.Channel,
		MessageID:                     event.MessageID,
		ThreadID:                      threadID,
		PartyIDs:                      []snowflake.ID{resolution.Party.ID},
		PersonIDs:                     personIDs,
		TeamIDs:                       []snowflake.ID{resolution.Party.OwnerTeamID},
		TeamPropertyProgramID:         &programID,
		FallbackTeamPropertyProgramID: fallbackID,
		Message:                       event.Payload,
	})
	if err != nil {
		return Transient(ReasonStorage, err)
	}
	if !created {
		p.metrics.Duplicates.Inc()
		return Success(ReasonDuplicate)
	}

	// advisory stamps; the communication is already durable, so a failure
	// here must not trigger a reprocessing round
	if err := p.parties.RecordComm(ctx, event.TenantID, resolution.Party.ID, comm.ID, resolution.CreatedParty); err != nil {
		p.log.Warn("party stamp failed",
			zap.String("tenant_id", event.TenantID.String()),
			zap.String("party_id", resolution.Party.ID.String()),
			zap.Error(err),
		)
	}

	if err := p.notify.CommRouted(ctx, event.TenantID, notify.RoutedEvent{
		PartyID:         resolution.Party.ID,
		CommunicationID: comm.ID,
		ThreadID:        threadID,
		WSUsers:         []snowflake.ID{resolution.Party.OwnerUserID},
	}); err != nil {
		p.log.Warn("routed notification failed",
			zap.String("tenant_id", event.TenantID.String()),
			zap.Error(err),
		)
	}

	p.log.Info("communication routed",
		zap.String("tenant_id", event.TenantID.String()),
		zap.String("message_id", event.MessageID),
		zap.String("party_id", resolution.Party.ID.String()),
		zap.String("thread_id", threadID),
		zap.Bool("created_party", resolution.CreatedParty),
		zap.Bool("fallback_used", route.FallbackUsed),
		zap.Bool("reassigned_owner", resolution.ReassignedOwner),
	)
	return Success(ReasonRouted)
}

func contactTypeFor(channel commdomain.Channel, from string) persondomain.ContactType {
	if channel.IsPhoneChannel() {
		return persondomain.ContactPhone
	}
	if channel == commdomain.ChannelWeb && address.LooksLikePhone(from) {
		return persondomain.ContactPhone
	}
	return persondomain.ContactEmail
}
