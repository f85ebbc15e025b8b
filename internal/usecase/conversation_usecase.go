package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/filtra-ar/filtrabot/internal/domain/constants"
	"github.com/filtra-ar/filtrabot/internal/domain/entity"
	"github.com/filtra-ar/filtrabot/internal/domain/repository"
	"github.com/filtra-ar/filtrabot/pkg/logger"
)

// Button ids used in interactive replies.
const (
	btnSupport   = "btn_support"
	btnRetry     = "btn_retry"
	btnReturnBot = "btn_return_bot"
	btnBuy       = "btn_buy"
	btnMechanic  = "btn_mechanic"
	btnSeller    = "btn_seller"
	btnError     = "btn_error"
)

// List row id prefixes: "veh:<id>" selects a vehicle, "model:<brand>
// <model>" re-runs a scoped search.
const (
	rowVehiclePrefix = "veh:"
	rowModelPrefix   = "model:"
)

// greetingKeywords pull any state back to bot and trigger the welcome.
var greetingKeywords = map[string]struct{}{
	"hola": {}, "start": {}, "menu": {}, "inicio": {}, "hi": {},
}

// cancelKeywords abort a survey mid-flow.
var cancelKeywords = map[string]struct{}{
	"hola": {}, "start": {}, "menu": {}, "inicio": {}, "hi": {},
	"cancelar": {}, "salir": {},
}

// ConversationUseCase routes inbound events through the dedup window and
// the per-session state machine, runs searches, and executes the
// resulting effects against the channel, mirror and store.
type ConversationUseCase struct {
	sessions  repository.SessionRepository
	catalog   repository.CatalogRepository
	messenger repository.Messenger
	mirror    repository.OperatorLog
	parser    *QueryParser
	window    *EventWindow

	now func() time.Time
}

// NewConversationUseCase wires the engine. All collaborators are required;
// pass a disabled mirror implementation rather than nil.
func NewConversationUseCase(
	sessions repository.SessionRepository,
	catalog repository.CatalogRepository,
	messenger repository.Messenger,
	mirror repository.OperatorLog,
	parser *QueryParser,
	window *EventWindow,
) *ConversationUseCase {
	return &ConversationUseCase{
		sessions:  sessions,
		catalog:   catalog,
		messenger: messenger,
		mirror:    mirror,
		parser:    parser,
		window:    window,
		now:       time.Now,
	}
}

// decision is the output of the transition function: the next mode plus
// the effects the orchestrator must execute. Session fields other than
// Mode are only touched through the explicit fields here.
type decision struct {
	mode         entity.Mode
	userKind     entity.UserKind // "" leaves the kind unchanged
	meta         map[string]string
	locationHint string
	effects      []effect
}

func (d *decision) setMeta(key, value string) {
	if d.meta == nil {
		d.meta = make(map[string]string)
	}
	d.meta[key] = value
}

// HandleEvent processes one inbound delivery to completion. Discarded
// events (stale or duplicate) produce no mutation and no reply.
func (uc *ConversationUseCase) HandleEvent(ctx context.Context, ev entity.InboundEvent) error {
	now := uc.now()
	if !uc.window.Admit(ev.ProviderID, ev.Timestamp, now) {
		return nil
	}

	sess, err := uc.sessions.Get(ctx, ev.Identity)
	if err != nil {
		return fmt.Errorf("load session %s: %w", ev.Identity, err)
	}
	if sess == nil {
		sess = entity.NewSession(ev.Identity, now)
	}

	// Inactivity always falls back to autonomous mode, whatever the
	// user was doing before.
	if sess.Mode != entity.ModeBot && now.Sub(sess.LastActiveAt) > constants.SessionTimeout {
		sess.Mode = entity.ModeBot
	}

	dec := uc.decide(ctx, sess, ev)

	sess.Mode = dec.mode
	if dec.userKind != "" {
		sess.UserKind = dec.userKind
	}
	if dec.locationHint != "" {
		sess.LocationHint = dec.locationHint
	}
	for k, v := range dec.meta {
		if sess.Metadata == nil {
			sess.Metadata = make(map[string]string)
		}
		sess.Metadata[k] = v
	}
	sess.LastActiveAt = now

	// Persistence failure must not cancel the decision already made for
	// this turn; the next turn re-reads whatever state stuck.
	if err := uc.sessions.Save(ctx, sess); err != nil {
		logger.ErrorLogger.Printf("save session %s: %v", ev.Identity, err)
	}

	uc.runEffects(ctx, ev.Identity, dec.effects)
	return nil
}

// decide is the single transition path: (state, event) -> (state,
// effects). It never mutates the session.
func (uc *ConversationUseCase) decide(ctx context.Context, sess *entity.Session, ev entity.InboundEvent) decision {
	switch {
	case sess.Mode == entity.ModeHuman:
		return uc.decideHuman(sess, ev)
	case sess.Mode.InSurvey():
		return uc.decideSurvey(sess, ev)
	default:
		return uc.decideBot(ctx, sess, ev)
	}
}

// decideHuman forwards everything to the operator feed and only reacts
// to the bot-return triggers.
func (uc *ConversationUseCase) decideHuman(sess *entity.Session, ev entity.InboundEvent) decision {
	if isReturnTrigger(ev) {
		d := decision{mode: entity.ModeBot}
		d.effects = append(d.effects,
			mirrorEffect(repository.TierNormal, "🤖 El usuario volvió al bot."),
			logEffect("return_bot", ev.Text),
		)
		d.effects = append(d.effects, welcomeEffects()...)
		return d
	}

	return decision{
		mode: entity.ModeHuman,
		effects: []effect{
			mirrorEffect(repository.TierNormal, "💬 "+ev.Text),
			logEffect("human_forward", ev.Text),
		},
	}
}

func isReturnTrigger(ev entity.InboundEvent) bool {
	if ev.Kind == entity.EventButtonReply && ev.SelectionID == btnReturnBot {
		return true
	}
	_, ok := greetingKeywords[strings.ToLower(strings.TrimSpace(ev.Text))]
	return ok
}

// decideSurvey consumes the event's text as the answer to the current
// question, never as a fresh search.
func (uc *ConversationUseCase) decideSurvey(sess *entity.Session, ev entity.InboundEvent) decision {
	if isSurveyCancel(ev) {
		return decision{
			mode: entity.ModeBot,
			effects: []effect{
				textEffect("👌 Listo, cancelado. Escribí el modelo de tu auto cuando quieras."),
				logEffect("survey_cancel", string(sess.Mode)),
			},
		}
	}

	answer := strings.TrimSpace(ev.Text)
	if answer == "" {
		return decision{
			mode:    sess.Mode,
			effects: []effect{textEffect("🤔 No entendí. Respondé con un mensaje de texto, o escribí *cancelar*.")},
		}
	}

	switch sess.Mode {
	case entity.ModeWaitingMechanicPriority:
		d := decision{mode: entity.ModeWaitingMechanicName}
		d.setMeta("priority", answer)
		d.effects = append(d.effects, textEffect("🔧 ¿Y cómo se llama tu taller?"))
		return d

	case entity.ModeWaitingMechanicName:
		d := decision{mode: entity.ModeBot, userKind: entity.KindMechanic}
		d.setMeta("shop_name", answer)
		return uc.completeSurvey(sess, d, entity.KindMechanic)

	case entity.ModeWaitingSellerName:
		d := decision{mode: entity.ModeWaitingSellerLocation}
		d.setMeta("seller_name", answer)
		d.effects = append(d.effects, textEffect("📍 ¿En qué zona trabajás?"))
		return d

	case entity.ModeWaitingSellerLocation:
		d := decision{mode: entity.ModeWaitingSellerLogistics, locationHint: answer}
		d.setMeta("location", answer)
		d.effects = append(d.effects, textEffect("🚚 ¿Hacés envíos? ¿Cómo manejás la logística?"))
		return d

	case entity.ModeWaitingSellerLogistics:
		d := decision{mode: entity.ModeBot, userKind: entity.KindSeller}
		d.setMeta("logistics", answer)
		return uc.completeSurvey(sess, d, entity.KindSeller)

	case entity.ModeWaitingBuyerLocation:
		d := decision{mode: entity.ModeWaitingBuyerUrgency, locationHint: answer}
		d.setMeta("location", answer)
		d.effects = append(d.effects, textEffect("⏱ ¿Lo necesitás ya o estás averiguando?"))
		return d

	case entity.ModeWaitingBuyerUrgency:
		d := decision{mode: entity.ModeBot, userKind: entity.KindBuyer}
		d.setMeta("urgency", answer)
		return uc.completeSurvey(sess, d, entity.KindBuyer)
	}

	// Unknown state+event combination: fail silent, no transition.
	return decision{mode: sess.Mode}
}

func isSurveyCancel(ev entity.InboundEvent) bool {
	if ev.Kind == entity.EventButtonReply && ev.SelectionID == btnReturnBot {
		return true
	}
	if ev.Kind != entity.EventText {
		return false
	}
	_, ok := cancelKeywords[strings.ToLower(strings.TrimSpace(ev.Text))]
	return ok
}

// completeSurvey validates the collected answers into the lead profile
// for kind and emits the save + thanks effects. Validation failure drops
// the lead but still ends the survey.
func (uc *ConversationUseCase) completeSurvey(sess *entity.Session, d decision, kind entity.UserKind) decision {
	val := func(key string) string {
		if v, ok := d.meta[key]; ok {
			return v
		}
		return sess.Metadata[key]
	}

	lead, err := buildLead(sess.Identity, kind, val)
	if err != nil {
		logger.ErrorLogger.Printf("lead validation %s (%s): %v", sess.Identity, kind, err)
		d.effects = append(d.effects, textEffect("🙏 ¡Gracias! Escribí el modelo de tu auto cuando quieras."))
		return d
	}

	d.effects = append(d.effects,
		saveLeadEffect(lead),
		mirrorEffect(repository.TierUrgent, formatLeadAlert(lead)),
		logEffect("survey_complete", string(kind)),
		textEffect("🙌 ¡Gracias! Quedó registrado. Escribí el modelo de tu auto cuando quieras."),
	)
	return d
}

// buildLead materializes the tagged union for one lead type; every field
// of the chosen profile must be present.
func buildLead(identity string, kind entity.UserKind, val func(string) string) (entity.Lead, error) {
	lead := entity.Lead{ID: uuid.NewString(), Identity: identity, Kind: kind}
	missing := func(key string) error { return fmt.Errorf("missing answer %q", key) }

	switch kind {
	case entity.KindMechanic:
		p := entity.MechanicProfile{Priority: val("priority"), ShopName: val("shop_name")}
		if p.Priority == "" {
			return lead, missing("priority")
		}
		if p.ShopName == "" {
			return lead, missing("shop_name")
		}
		lead.Mechanic = &p
	case entity.KindSeller:
		p := entity.SellerProfile{Name: val("seller_name"), Location: val("location"), Logistics: val("logistics")}
		if p.Name == "" {
			return lead, missing("seller_name")
		}
		if p.Location == "" {
			return lead, missing("location")
		}
		if p.Logistics == "" {
			return lead, missing("logistics")
		}
		lead.Seller = &p
	case entity.KindBuyer:
		p := entity.BuyerProfile{Location: val("location"), Urgency: val("urgency")}
		if p.Location == "" {
			return lead, missing("location")
		}
		if p.Urgency == "" {
			return lead, missing("urgency")
		}
		lead.Buyer = &p
	default:
		return lead, fmt.Errorf("unexpected lead kind %q", kind)
	}
	return lead, nil
}

// decideBot handles autonomous mode and menu_mode (feedback collection).
func (uc *ConversationUseCase) decideBot(ctx context.Context, sess *entity.Session, ev entity.InboundEvent) decision {
	switch ev.Kind {
	case entity.EventButtonReply:
		return uc.decideButton(sess, ev)
	case entity.EventListReply:
		return uc.decideSelection(ctx, sess, ev)
	case entity.EventText:
		text := strings.TrimSpace(ev.Text)
		if _, ok := greetingKeywords[strings.ToLower(text)]; ok {
			d := decision{mode: entity.ModeBot}
			d.effects = append(d.effects, logEffect("greeting", text))
			d.effects = append(d.effects, welcomeEffects()...)
			return d
		}
		return uc.decideSearch(ctx, sess, text)
	}

	// Unknown event type: fail silent (the provider will not retry on a
	// 200 acknowledgement anyway).
	return decision{mode: sess.Mode}
}

func (uc *ConversationUseCase) decideButton(sess *entity.Session, ev entity.InboundEvent) decision {
	d := decision{mode: sess.Mode}
	d.effects = append(d.effects, logEffect("click_button", ev.SelectionID))

	switch ev.SelectionID {
	case btnReturnBot:
		d.mode = entity.ModeBot
		d.effects = append(d.effects, welcomeEffects()...)
	case btnRetry:
		d.mode = entity.ModeBot
		d.effects = append(d.effects, textEffect("👇 Escribí el modelo de tu auto (ej: Gol Trend):"))
	case btnSupport:
		d.mode = entity.ModeHuman
		d.effects = append(d.effects,
			textEffect("🙋 ¡Listo! Un humano del equipo te responde en breve por acá."),
			mirrorEffect(repository.TierUrgent, "🆘 El usuario pidió ayuda humana."),
		)
	case btnError:
		d.mode = entity.ModeMenu
		d.effects = append(d.effects, textEffect("📝 Contanos el error o el dato que falta:"))
	case btnMechanic:
		d.mode = entity.ModeWaitingMechanicPriority
		d.effects = append(d.effects, textEffect("🔧 ¡Genial! ¿Qué marca de filtros priorizás en tu taller?"))
	case btnSeller:
		d.mode = entity.ModeWaitingSellerName
		d.effects = append(d.effects, textEffect("🏪 ¡Buenísimo! ¿Cómo se llama tu negocio?"))
	case btnBuy:
		d.mode = entity.ModeWaitingBuyerLocation
		d.effects = append(d.effects, textEffect("📍 ¿En qué zona estás? Así te acercamos vendedores."))
	default:
		// Unknown button id: no reply, no transition.
		d.effects = d.effects[:0]
	}
	return d
}

// decideSelection resolves a list reply: either a vehicle detail lookup
// or a model-menu entry that re-triggers a scoped search.
func (uc *ConversationUseCase) decideSelection(ctx context.Context, sess *entity.Session, ev entity.InboundEvent) decision {
	switch {
	case strings.HasPrefix(ev.SelectionID, rowVehiclePrefix):
		return uc.decideVehicleDetail(ctx, sess, strings.TrimPrefix(ev.SelectionID, rowVehiclePrefix), ev.Text)
	case strings.HasPrefix(ev.SelectionID, rowModelPrefix):
		return uc.decideSearch(ctx, sess, strings.TrimPrefix(ev.SelectionID, rowModelPrefix))
	}
	return decision{mode: sess.Mode}
}

func (uc *ConversationUseCase) decideVehicleDetail(ctx context.Context, sess *entity.Session, vehicleID, title string) decision {
	d := decision{mode: entity.ModeBot}
	d.effects = append(d.effects,
		logEffect("select_vehicle", vehicleID+" - "+title),
		mirrorEffect(repository.TierSilent, "🚗 Eligió: "+title),
	)

	vehicle, err := uc.catalog.GetVehicle(ctx, vehicleID)
	if err != nil {
		logger.ErrorLogger.Printf("vehicle lookup %s: %v", vehicleID, err)
		d.effects = append(d.effects, textEffect("😔 Hubo un error recuperando los datos. Probá de nuevo en un rato."))
		return d
	}
	if vehicle == nil {
		d.effects = append(d.effects, textEffect("⚠️ Ese vehículo ya no está en el catálogo. Probá buscarlo de nuevo."))
		return d
	}

	parts, err := uc.catalog.PartsFor(ctx, vehicleID)
	if err != nil {
		logger.ErrorLogger.Printf("parts lookup %s: %v", vehicleID, err)
		d.effects = append(d.effects, textEffect("😔 Hubo un error recuperando los filtros. Probá de nuevo en un rato."))
		return d
	}

	d.effects = append(d.effects, buttonsEffect(
		formatVehicleDetail(*vehicle, parts),
		[]repository.Button{
			{ID: btnBuy, Title: "📍 ¿Dónde comprar?"},
			{ID: btnMechanic, Title: "🔧 Soy Taller"},
			{ID: btnError, Title: "📝 Reportar Error"},
		},
	))
	return d
}

// decideSearch runs the parse -> filter -> classify pipeline and picks
// the conversational branch for the cardinality.
func (uc *ConversationUseCase) decideSearch(ctx context.Context, sess *entity.Session, text string) decision {
	d := decision{mode: entity.ModeBot}
	d.effects = append(d.effects,
		logEffect("search_text", text),
		mirrorEffect(repository.TierSilent, "🔎 Buscó: "+text),
	)

	query := uc.parser.Parse(text)
	if query.IsEmpty() {
		d.mode = sess.Mode
		d.effects = append(d.effects, textEffect("🤔 Decime marca o modelo (ej: *Gol Trend 1.6* o *Hilux 2015*)."))
		return d
	}

	vehicles, err := uc.catalog.Search(ctx, BuildFilter(query))
	if err != nil {
		logger.ErrorLogger.Printf("catalog search %q: %v", text, err)
		d.mode = sess.Mode
		d.effects = append(d.effects, textEffect("😔 Hubo un error buscando. Intentá más tarde."))
		return d
	}

	outcome := ClassifyResults(vehicles)
	switch outcome.Kind {
	case OutcomeNone:
		if sess.Mode == entity.ModeMenu {
			// Feedback collection: the zero-result text is the report,
			// not a failed search.
			d.effects = append(d.effects,
				mirrorEffect(repository.TierUrgent, "📝 Feedback: "+text),
				logEffect("feedback", text),
				textEffect("🙏 ¡Gracias! Lo revisamos y sumamos el dato."),
			)
			return d
		}
		d.mode = sess.Mode
		d.effects = append(d.effects, buttonsEffect(
			"😕 No encontré ese modelo.\nLa base crece todos los días. ¿Querés que lo agreguemos con prioridad?",
			[]repository.Button{
				{ID: btnSupport, Title: "📩 Avisar soporte"},
				{ID: btnRetry, Title: "🔄 Intentar de nuevo"},
			},
		))
		return d

	case OutcomeMenu:
		rows := make([]repository.ListRow, 0, len(outcome.Models))
		for _, model := range outcome.Models {
			rows = append(rows, repository.ListRow{
				ID:          rowModelPrefix + outcome.Brand + " " + model,
				Title:       truncate(model, listTitleMax),
				Description: "Ver versiones",
			})
		}
		d.effects = append(d.effects, listEffect(
			fmt.Sprintf("🔎 Encontré varios modelos de %s. ¿Cuál es el tuyo?", outcome.Brand),
			"Ver Modelos", "Modelos", rows,
		))
		return d

	case OutcomeNarrow:
		d.effects = append(d.effects, textEffect("🖐 Encontré demasiados autos. Agregá el año o el motor (ej: *Hilux 2015 2.8*)."))
		return d
	}

	rows := make([]repository.ListRow, 0, len(outcome.Vehicles))
	for _, v := range outcome.Vehicles {
		rows = append(rows, repository.ListRow{
			ID:          rowVehiclePrefix + v.ID,
			Title:       truncate(v.Brand+" "+v.Model, listTitleMax),
			Description: truncate(formatVehicleRow(v), listDescriptionMax),
		})
	}
	d.effects = append(d.effects, listEffect("Seleccioná tu versión exacta:", "Ver Modelos", "Resultados", rows))
	return d
}

func welcomeEffects() []effect {
	return []effect{
		buttonsEffect(
			"👋 ¡Hola! Soy *FiltraBot* (Beta).\nHerramienta gratuita para buscar filtros en Argentina. 🇦🇷\n\n👇 Escribí el modelo de tu auto (ej: *Gol Trend*):",
			[]repository.Button{
				{ID: btnMechanic, Title: "🔧 Soy mecánico"},
				{ID: btnSeller, Title: "🏪 Vendo repuestos"},
				{ID: btnError, Title: "📝 Reportar error"},
			},
		),
	}
}
