package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
)

func validBlock(block string) bool {
	for _, b := range models.SeminarBlocks {
		if b == block {
			return true
		}
	}
	return false
}

// CreateSeminar records a talk and pays for it at once: the speaker receives
// the total score in bucks and every listener gets a seminar visit.
func (s *Service) CreateSeminar(ctx context.Context, actor models.User, in models.SeminarCreate) (models.SeminarCreated, error) {
	if !actor.Privileged() {
		return models.SeminarCreated{}, ErrForbidden
	}
	if !validBlock(in.Block) {
		return models.SeminarCreated{}, invalid("block must be one of %s", strings.Join(models.SeminarBlocks, ", "))
	}
	if strings.TrimSpace(in.Description) == "" {
		return models.SeminarCreated{}, invalid("description is required")
	}
	if err := in.Evaluation.Validate(); err != nil {
		return models.SeminarCreated{}, invalid("%v", err)
	}
	if total := in.Evaluation.Total(); total != in.TotalScore {
		return models.SeminarCreated{}, invalid("totalScore %d does not match the evaluation sum %d", in.TotalScore, total)
	}
	evaluation, err := json.Marshal(in.Evaluation)
	if err != nil {
		return models.SeminarCreated{}, err
	}

	var recordID, txID uint
	err = s.store.Atomic(ctx, func(store repositories.Store) error {
		speaker, err := store.Users().FindByUsername(ctx, in.Speaker)
		if err != nil {
			return notFound(err, "speaker", in.Speaker)
		}

		rows := []models.Recipient{{UserID: speaker.ID, Bucks: float64(in.TotalScore), Read: 1}}
		attendees := make([]string, 0, len(in.Attendees))
		seen := map[string]bool{}
		for _, name := range in.Attendees {
			if seen[name] {
				continue
			}
			seen[name] = true
			u, err := store.Users().FindByUsername(ctx, name)
			if err != nil {
				return notFound(err, "attendee", name)
			}
			rows = append(rows, models.Recipient{UserID: u.ID, Sem: 1})
			attendees = append(attendees, u.Username)
		}

		t, err := store.Transactions().Create(ctx, models.LedgerTransaction{
			CreatorID:   actor.ID,
			Type:        models.TypeSeminar,
			Description: fmt.Sprintf("Семинар: %s", in.Description),
			State:       models.StateCreated,
			Recipients:  rows,
		})
		if err != nil {
			return err
		}
		if err := s.process(ctx, store, actor, t.ID); err != nil {
			return err
		}

		record, err := store.Seminars().Create(ctx, models.SeminarRecord{
			SpeakerID:     speaker.ID,
			AuthorID:      actor.ID,
			Block:         in.Block,
			Description:   in.Description,
			Evaluation:    string(evaluation),
			TotalScore:    in.TotalScore,
			Attendees:     strings.Join(attendees, ","),
			TransactionID: t.ID,
		})
		recordID, txID = record.ID, t.ID
		return err
	})
	if err != nil {
		return models.SeminarCreated{}, err
	}

	seminar, err := s.Seminar(ctx, recordID)
	if err != nil {
		return models.SeminarCreated{}, err
	}
	zlog.Info("seminar recorded",
		zap.String("speaker", in.Speaker),
		zap.Int("score", in.TotalScore),
		zap.Int("attendees", len(seminar.Attendees)))
	return models.SeminarCreated{
		Message:       "Seminar created successfully",
		Seminar:       seminar,
		TransactionID: txID,
	}, nil
}

// Seminars lists every recorded talk, newest first.
func (s *Service) Seminars(ctx context.Context) ([]models.Seminar, error) {
	query := s.store.Seminars().GetQuery()
	query.Preloads = []string{"Speaker", "Author"}
	query.SortBy = "created_at desc, id desc"
	records, err := s.store.Seminars().FindAll(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]models.Seminar, 0, len(records))
	for _, r := range records {
		out = append(out, renderSeminar(r))
	}
	return out, nil
}

func (s *Service) Seminar(ctx context.Context, id uint) (models.Seminar, error) {
	query := s.store.Seminars().GetQuery()
	query.Conditions = append(query.Conditions, repositories.EQ("ID", id))
	query.Preloads = []string{"Speaker", "Author"}
	record, err := s.store.Seminars().Find(ctx, query)
	if err != nil {
		return models.Seminar{}, notFound(err, "seminar", id)
	}
	return renderSeminar(record), nil
}

func renderSeminar(r models.SeminarRecord) models.Seminar {
	var evaluation models.SeminarEvaluation
	if err := json.Unmarshal([]byte(r.Evaluation), &evaluation); err != nil {
		zlog.Warn("stored seminar evaluation is unreadable", zap.Uint("id", r.ID), zap.Error(err))
	}
	attendees := []string{}
	if r.Attendees != "" {
		attendees = strings.Split(r.Attendees, ",")
	}
	return models.Seminar{
		ID:          r.ID,
		Speaker:     r.Speaker.Username,
		SpeakerName: r.Speaker.LongName(),
		Block:       r.Block,
		Description: r.Description,
		Evaluation:  evaluation,
		TotalScore:  r.TotalScore,
		Attendees:   attendees,
		DateCreated: r.CreatedAt,
		Author:      r.Author.LongName(),
	}
}
