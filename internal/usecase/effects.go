package usecase

import (
	"context"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
	"github.com/filtra-ar/filtrabot/internal/domain/repository"
	"github.com/filtra-ar/filtrabot/pkg/logger"
)

type effectKind int

const (
	fxSendText effectKind = iota
	fxSendList
	fxSendButtons
	fxMirror
	fxSaveLead
	fxLogEvent
)

// effect is one side effect chosen by the transition function. The
// orchestrator decides per call site what a failure means; the transition
// function itself stays pure.
type effect struct {
	kind effectKind

	text         string
	buttonLabel  string
	sectionTitle string
	rows         []repository.ListRow
	buttons      []repository.Button

	tier repository.MirrorTier
	lead entity.Lead

	action  string
	content string
}

func textEffect(text string) effect {
	return effect{kind: fxSendText, text: text}
}

func listEffect(body, buttonLabel, sectionTitle string, rows []repository.ListRow) effect {
	return effect{kind: fxSendList, text: body, buttonLabel: buttonLabel, sectionTitle: sectionTitle, rows: rows}
}

func buttonsEffect(body string, buttons []repository.Button) effect {
	return effect{kind: fxSendButtons, text: body, buttons: buttons}
}

func mirrorEffect(tier repository.MirrorTier, text string) effect {
	return effect{kind: fxMirror, tier: tier, text: text}
}

func saveLeadEffect(lead entity.Lead) effect {
	return effect{kind: fxSaveLead, lead: lead}
}

func logEffect(action, content string) effect {
	return effect{kind: fxLogEvent, action: action, content: content}
}

// runEffects executes effects sequentially. Channel and mirror sends are
// independent: a mirror failure never aborts the primary reply and vice
// versa. All failures are contained here.
func (uc *ConversationUseCase) runEffects(ctx context.Context, identity string, effects []effect) {
	for _, fx := range effects {
		var err error
		switch fx.kind {
		case fxSendText:
			err = uc.messenger.SendText(ctx, identity, fx.text)
		case fxSendList:
			err = uc.messenger.SendList(ctx, identity, fx.text, fx.buttonLabel, fx.sectionTitle, fx.rows)
		case fxSendButtons:
			err = uc.messenger.SendButtons(ctx, identity, fx.text, fx.buttons)
		case fxMirror:
			err = uc.mirror.Log(ctx, identity, fx.text, fx.tier)
		case fxSaveLead:
			err = uc.sessions.SaveLead(ctx, fx.lead)
		case fxLogEvent:
			err = uc.sessions.LogEvent(ctx, identity, fx.action, fx.content)
		}
		if err != nil {
			logger.ErrorLogger.Printf("effect %d for %s failed: %v", fx.kind, identity, err)
		}
	}
}
