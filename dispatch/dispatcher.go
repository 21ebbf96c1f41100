package dispatch

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/vipgate/content"
	"github.com/open-rails/vipgate/core"
	"github.com/open-rails/vipgate/vip"
)

// Message is one inbound command as seen by the dispatcher: the transport's
// sender identity plus the chat to reply into.
type Message struct {
	UserID   int64
	Username string
	ChatID   int64
	Text     string
}

// RateLimiter throttles non-admin senders. A nil limiter allows everything.
type RateLimiter interface {
	Allow(bucket, sender string) (bool, error)
}

// Dispatcher routes inbound commands: parse, authorize mutating ones against
// the configured admin identity, execute against the stores, reply. It holds
// no state of its own beyond injected collaborators.
type Dispatcher struct {
	cfg      *core.Config
	vips     *vip.Store
	registry *content.Store
	sender   core.Sender
	notifier core.Notifier
	limiter  RateLimiter
	log      *logrus.Logger
	now      func() time.Time
}

func New(cfg *core.Config, vips *vip.Store, registry *content.Store, sender core.Sender, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		vips:     vips,
		registry: registry,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

// WithNotifier sets the out-of-band user notifier.
func (d *Dispatcher) WithNotifier(n core.Notifier) *Dispatcher {
	d.notifier = n
	return d
}

// WithLimiter sets the command flood limiter.
func (d *Dispatcher) WithLimiter(l RateLimiter) *Dispatcher {
	d.limiter = l
	return d
}

// WithClock overrides the dispatcher's clock.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// HandleMessage processes one inbound message. Non-command text is ignored;
// everything else gets exactly one reply. Send failures never propagate to
// the poll loop.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg Message) {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	cmd, rest := splitCommand(text)

	admin := d.isAdmin(msg)
	if !admin && !d.allowFlood(msg) {
		d.reply(ctx, msg.ChatID, replyFlood)
		return
	}

	switch cmd {
	case "/start":
		d.handleStart(ctx, msg, rest)
	case "/help":
		d.reply(ctx, msg.ChatID, helpText(d.cfg, admin))
	case "/vipstatus":
		d.handleVIPStatus(ctx, msg)
	case "/addvideo":
		if d.requireAdmin(ctx, msg, admin) {
			d.handleAddVideo(ctx, msg, rest)
		}
	case "/delvideo":
		if d.requireAdmin(ctx, msg, admin) {
			d.handleDelVideo(ctx, msg, rest)
		}
	case "/listvideos":
		if d.requireAdmin(ctx, msg, admin) {
			d.handleListVideos(ctx, msg)
		}
	case "/setvip":
		if d.requireAdmin(ctx, msg, admin) {
			d.handleSetVIP(ctx, msg, rest)
		}
	case "/removevip":
		if d.requireAdmin(ctx, msg, admin) {
			d.handleRemoveVIP(ctx, msg, rest)
		}
	case "/listvip":
		if d.requireAdmin(ctx, msg, admin) {
			d.handleListVIP(ctx, msg)
		}
	default:
		d.reply(ctx, msg.ChatID, replyUnknown)
	}
}

// isAdmin checks the sender against the configured admin identity: numeric id
// first, then handle (with or without the leading @). The open-admission
// fallback only applies when explicitly enabled, and every grant through it
// is warn-logged.
func (d *Dispatcher) isAdmin(msg Message) bool {
	if d.cfg.AdminID != 0 && msg.UserID == d.cfg.AdminID {
		return true
	}
	if d.cfg.AdminHandle != "" && msg.Username != "" {
		want := strings.TrimPrefix(d.cfg.AdminHandle, "@")
		if strings.EqualFold(msg.Username, want) {
			return true
		}
	}
	if !d.cfg.AdminConfigured() && d.cfg.OpenAdminFallback {
		d.log.WithField("user_id", msg.UserID).
			Warn("no admin configured, open fallback granting admin to caller")
		return true
	}
	return false
}

// requireAdmin short-circuits mutating commands with a rejection reply before
// any store access.
func (d *Dispatcher) requireAdmin(ctx context.Context, msg Message, admin bool) bool {
	if admin {
		return true
	}
	d.log.WithError(core.ErrNotAuthorized).WithField("user_id", msg.UserID).Info("mutating command rejected")
	d.reply(ctx, msg.ChatID, replyAdminOnly)
	return false
}

func (d *Dispatcher) allowFlood(msg Message) bool {
	if d.limiter == nil {
		return true
	}
	ok, err := d.limiter.Allow("command", strconv.FormatInt(msg.UserID, 10))
	if err != nil {
		// Fail open: a broken limiter must not lock users out.
		d.log.WithError(err).Warn("flood limiter unavailable")
		return true
	}
	return ok
}

func (d *Dispatcher) handleStart(ctx context.Context, msg Message, rest string) {
	contentID := firstField(rest)
	if contentID == "" {
		d.handleWelcome(ctx, msg)
		return
	}

	item, err := d.registry.Get(ctx, contentID)
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "content lookup")
		return
	}
	if item == nil {
		d.reply(ctx, msg.ChatID, replyInvalidLink)
		return
	}

	ent, err := d.vips.Get(ctx, strconv.FormatInt(msg.UserID, 10))
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "entitlement lookup")
		return
	}
	valid, expiresAt := vip.Evaluate(ent, d.now())
	if !valid {
		d.reply(ctx, msg.ChatID, lockedPitch(d.cfg))
		return
	}
	remaining := vip.FormatRemaining(expiresAt, d.now().Unix())
	d.reply(ctx, msg.ChatID, videoReply(item.Locator, remaining))
}

func (d *Dispatcher) handleWelcome(ctx context.Context, msg Message) {
	statusLine := ""
	ent, err := d.vips.Get(ctx, strconv.FormatInt(msg.UserID, 10))
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "entitlement lookup")
		return
	}
	if valid, expiresAt := vip.Evaluate(ent, d.now()); valid {
		statusLine = welcomeVIPLine(vip.FormatRemaining(expiresAt, d.now().Unix()))
	}
	d.reply(ctx, msg.ChatID, welcomeText(statusLine))
}

func (d *Dispatcher) handleVIPStatus(ctx context.Context, msg Message) {
	ent, err := d.vips.Get(ctx, strconv.FormatInt(msg.UserID, 10))
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "entitlement lookup")
		return
	}
	valid, expiresAt := vip.Evaluate(ent, d.now())
	if !valid {
		d.reply(ctx, msg.ChatID, noVIPPitch(d.cfg))
		return
	}
	remaining := vip.FormatRemaining(expiresAt, d.now().Unix())
	d.reply(ctx, msg.ChatID, vipStatusReply(remaining, vip.FormatExpiry(expiresAt)))
}

func (d *Dispatcher) handleAddVideo(ctx context.Context, msg Message, rest string) {
	locator := strings.TrimSpace(rest)
	if locator == "" {
		d.reply(ctx, msg.ChatID, replyAddVideoUsage)
		return
	}
	item, err := d.registry.Create(ctx, locator)
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "content create")
		return
	}
	d.reply(ctx, msg.ChatID, videoAddedReply(item, deepLink(d.cfg, item.ID)))
}

func (d *Dispatcher) handleDelVideo(ctx context.Context, msg Message, rest string) {
	id := firstField(rest)
	if id == "" {
		d.reply(ctx, msg.ChatID, replyDelVideoUsage)
		return
	}
	removed, err := d.registry.Delete(ctx, id)
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "content delete")
		return
	}
	if !removed {
		d.log.WithError(core.ErrNotFound).WithField("content_id", id).Debug("delete of absent video")
		d.reply(ctx, msg.ChatID, videoNotFoundReply(id))
		return
	}
	d.reply(ctx, msg.ChatID, videoDeletedReply(id))
}

func (d *Dispatcher) handleListVideos(ctx context.Context, msg Message) {
	items, err := d.registry.List(ctx)
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "content list")
		return
	}
	if len(items) == 0 {
		d.reply(ctx, msg.ChatID, replyNoVideos)
		return
	}
	d.reply(ctx, msg.ChatID, videoListText(d.cfg, items))
}

func (d *Dispatcher) handleSetVIP(ctx context.Context, msg Message, rest string) {
	args := strings.Fields(rest)
	if len(args) < 2 {
		d.reply(ctx, msg.ChatID, setVIPUsage(d.cfg))
		return
	}
	userID := args[0]
	pkg := strings.ToLower(args[1])

	days, ok := d.cfg.PackageDays(pkg)
	if !ok {
		d.reply(ctx, msg.ChatID, invalidPackageReply(d.cfg))
		return
	}

	now := d.now()
	requested := now.Unix() + int64(days)*86400
	ent, err := d.vips.Upsert(ctx, userID, requested, pkg, now)
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "entitlement upsert")
		return
	}

	d.reply(ctx, msg.ChatID, vipSetReply(userID, pkg, days, vip.FormatExpiry(ent.ExpiresAt)))

	if d.notifier == nil {
		return
	}
	if err := d.notifier.NotifyUser(ctx, userID, vipGrantedNotice(days, vip.FormatExpiry(ent.ExpiresAt))); err != nil {
		d.log.WithError(err).WithField("user_id", userID).Warn("grant notification failed")
		d.reply(ctx, msg.ChatID, replyNotifyFailed)
	}
}

func (d *Dispatcher) handleRemoveVIP(ctx context.Context, msg Message, rest string) {
	userID := firstField(rest)
	if userID == "" {
		d.reply(ctx, msg.ChatID, replyRemoveVIPUsage)
		return
	}
	removed, err := d.vips.Delete(ctx, userID)
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "entitlement delete")
		return
	}
	if !removed {
		d.log.WithError(core.ErrNotFound).WithField("user_id", userID).Debug("revoke of absent entitlement")
		d.reply(ctx, msg.ChatID, vipMissingReply(userID))
		return
	}
	d.reply(ctx, msg.ChatID, vipRemovedReply(userID))

	if d.notifier == nil {
		return
	}
	if err := d.notifier.NotifyUser(ctx, userID, noticeRevoked); err != nil {
		d.log.WithError(err).WithField("user_id", userID).Warn("revoke notification failed")
	}
}

func (d *Dispatcher) handleListVIP(ctx context.Context, msg Message) {
	ents, err := d.vips.List(ctx)
	if err != nil {
		d.fail(ctx, msg.ChatID, err, "entitlement list")
		return
	}
	if len(ents) == 0 {
		d.reply(ctx, msg.ChatID, replyNoVIPs)
		return
	}
	d.reply(ctx, msg.ChatID, vipListText(ents, d.now()))
}

// fail logs the storage-level error with detail and sends the generic failure
// reply. Store failures are never read as "not found" or "not VIP".
func (d *Dispatcher) fail(ctx context.Context, chatID int64, err error, op string) {
	d.log.WithError(err).WithField("op", op).Error("command failed")
	d.reply(ctx, chatID, replyFailure)
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if err := d.sender.SendMessage(ctx, chatID, text); err != nil {
		d.log.WithError(err).WithField("chat_id", chatID).Warn("reply send failed")
	}
}

// splitCommand returns the lowercased command (with any @botname suffix
// stripped, as Telegram appends it in group chats) and the untouched
// remainder of the line.
func splitCommand(text string) (string, string) {
	cmd, rest, _ := strings.Cut(text, " ")
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}

func firstField(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
