package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/open-rails/vipgate/content"
	"github.com/open-rails/vipgate/core"
	"github.com/open-rails/vipgate/vip"
)

const (
	replyAdminOnly      = "❌ This command is only available for admins."
	replyUnknown        = "❓ Unknown command. Use /help to see available commands."
	replyInvalidLink    = "❌ This video link is invalid or has expired."
	replyAddVideoUsage  = "❌ Usage: /addvideo <video_url>"
	replyDelVideoUsage  = "❌ Usage: /delvideo <video_id>"
	replyRemoveVIPUsage = "❌ Usage: /removevip <user_id>"
	replyNoVideos       = "No videos have been added yet."
	replyNoVIPs         = "No VIP users found."
	replyNotifyFailed   = "⚠️ Could not notify the user. They may need to start the bot first."
	replyFailure        = "❌ Something went wrong. Please try again later."
	replyFlood          = "🐢 Too many requests. Please slow down."

	noticeRevoked = "⚠️ Your VIP access has been revoked by the administrator."
)

func deepLink(cfg *core.Config, contentID string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", cfg.BotUsername, contentID)
}

func packageLines(cfg *core.Config) string {
	var b strings.Builder
	for _, p := range cfg.Packages {
		unit := "days"
		if p.Days == 1 {
			unit = "day"
		}
		fmt.Fprintf(&b, "• %d %s VIP\n", p.Days, unit)
	}
	return strings.TrimRight(b.String(), "\n")
}

func paymentPitch(cfg *core.Config) string {
	return fmt.Sprintf(
		"Please make a payment at %s to get VIP access.\n\n"+
			"Available packages:\n%s\n\n"+
			"After payment, send the screenshot to the admin for verification.",
		cfg.PaymentLink, packageLines(cfg))
}

func lockedPitch(cfg *core.Config) string {
	return "🔒 This content requires VIP access.\n\n" + paymentPitch(cfg)
}

func noVIPPitch(cfg *core.Config) string {
	return "❌ You don't have VIP access.\n\n" + paymentPitch(cfg)
}

func welcomeText(statusLine string) string {
	return "👋 Welcome to the VIP Video Bot!\n\n" +
		"Use the links shared by admins to access premium videos." + statusLine
}

func welcomeVIPLine(remaining string) string {
	return fmt.Sprintf("\n\n✨ You have VIP status! Time remaining: %s", remaining)
}

func videoReply(locator, remaining string) string {
	return fmt.Sprintf("✅ Here's your video: %s\n\nYour VIP status is active. Time remaining: %s.",
		locator, remaining)
}

func videoAddedReply(item *content.Item, link string) string {
	return fmt.Sprintf("✅ Video added successfully!\n\n"+
		"🔗 Share this link for paid access:\n%s\n\n"+
		"🆔 Video ID: %s\n🎬 URL: %s",
		link, item.ID, item.Locator)
}

func videoDeletedReply(id string) string {
	return fmt.Sprintf("✅ Video with ID %s deleted successfully!", id)
}

func videoNotFoundReply(id string) string {
	return fmt.Sprintf("❌ Video with ID %s not found.", id)
}

func videoListText(cfg *core.Config, items []content.Item) string {
	var b strings.Builder
	b.WriteString("📋 List of Videos:\n\n")
	for _, it := range items {
		fmt.Fprintf(&b, "🆔 %s\n🎬 %s\n🔗 %s\n\n", it.ID, it.Locator, deepLink(cfg, it.ID))
	}
	return strings.TrimRight(b.String(), "\n")
}

func setVIPUsage(cfg *core.Config) string {
	return fmt.Sprintf("❌ Usage: /setvip <user_id> <package>\n\nAvailable packages: %s",
		strings.Join(cfg.PackageLabels(), ", "))
}

func invalidPackageReply(cfg *core.Config) string {
	return fmt.Sprintf("❌ Invalid package. Available packages: %s",
		strings.Join(cfg.PackageLabels(), ", "))
}

func vipSetReply(userID, pkg string, days int, expiry string) string {
	return fmt.Sprintf("✅ VIP status set for user %s\n📦 Package: %s (%d days)\n⏱ Expires on: %s",
		userID, pkg, days, expiry)
}

func vipGrantedNotice(days int, expiry string) string {
	return fmt.Sprintf("🌟 Congratulations! You now have VIP access!\n\n"+
		"Your VIP status is valid for %d days until %s.\n"+
		"You can now access all premium videos shared with you.",
		days, expiry)
}

func vipRemovedReply(userID string) string {
	return fmt.Sprintf("✅ VIP status removed for user %s.", userID)
}

func vipMissingReply(userID string) string {
	return fmt.Sprintf("❌ User %s does not have VIP status.", userID)
}

func vipStatusReply(remaining, expiry string) string {
	return fmt.Sprintf("✅ You have VIP access!\n\n⏱ Time remaining: %s\n📅 Expires on: %s",
		remaining, expiry)
}

func vipListText(ents []vip.Entitlement, now time.Time) string {
	var b strings.Builder
	b.WriteString("📋 List of VIP Users:\n\n")
	active, expired := 0, 0
	for _, e := range ents {
		expiry := vip.FormatExpiry(e.ExpiresAt)
		if e.ActiveAt(now) {
			active++
			fmt.Fprintf(&b, "👤 User ID: %s\n✅ Active\n⏱ Remaining: %s\n📅 Expires: %s\n\n",
				e.UserID, vip.FormatRemaining(e.ExpiresAt, now.Unix()), expiry)
		} else {
			expired++
			fmt.Fprintf(&b, "👤 User ID: %s\n❌ Expired\n📅 Expired on: %s\n\n", e.UserID, expiry)
		}
	}
	fmt.Fprintf(&b, "Summary: %d active, %d expired VIP users.", active, expired)
	return b.String()
}

func helpText(cfg *core.Config, admin bool) string {
	var b strings.Builder
	b.WriteString("📚 Available Commands:\n\n")
	b.WriteString("/start - Start the bot\n")
	b.WriteString("/vipstatus - Check your VIP status\n")
	b.WriteString("/help - Show this help message\n")
	if admin {
		b.WriteString("\n👑 Admin Commands:\n\n")
		b.WriteString("/addvideo <url> - Add a new video\n")
		b.WriteString("/delvideo <video_id> - Delete a video\n")
		b.WriteString("/listvideos - List all videos\n")
		fmt.Fprintf(&b, "/setvip <user_id> <package> - Set VIP status for a user (%s)\n",
			strings.Join(cfg.PackageLabels(), ", "))
		b.WriteString("/removevip <user_id> - Remove VIP status\n")
		b.WriteString("/listvip - List all VIP users\n")
	}
	return b.String()
}
