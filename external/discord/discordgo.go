package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/foxseedlab/kakiokoshi/internal/notify"
)

// Discord rejects message content above this many characters, not bytes.
const maxContentLength = 2000

// Notifier posts finished transcripts to a text channel as a file attachment.
// Only the REST API is used; no gateway connection is opened.
type Notifier struct {
	session   *discordgo.Session
	channelID string
}

func NewNotifier(token, channelID string) (*Notifier, error) {
	token = strings.TrimSpace(token)
	channelID = strings.TrimSpace(channelID)
	if token == "" || channelID == "" {
		return &Notifier{}, nil
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Notifier{session: s, channelID: channelID}, nil
}

func (n *Notifier) NotifyTranscript(ctx context.Context, t notify.Transcript) error {
	if n.session == nil {
		return nil
	}
	_, err := n.session.ChannelMessageSendComplex(n.channelID, &discordgo.MessageSend{
		Content: summaryContent(t),
		Files: []*discordgo.File{
			{Name: t.Filename, ContentType: "text/plain", Reader: bytes.NewReader(t.Text)},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return describeRESTError(err)
	}
	slog.Info("transcript posted to discord", "job_id", t.Result.ID, "channel_id", n.channelID)
	return nil
}

func summaryContent(t notify.Transcript) string {
	content := fmt.Sprintf("Transcript ready: **%s** (%d segments)", t.Result.FileName, len(t.Result.Segments))
	if runes := []rune(content); len(runes) > maxContentLength {
		content = string(runes[:maxContentLength])
	}
	return content
}

func describeRESTError(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	if restErr.Response.StatusCode == http.StatusForbidden || restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("discord channel is not writable (status %d): %w", restErr.Response.StatusCode, err)
	}
	return fmt.Errorf("send discord message (status %d): %w", restErr.Response.StatusCode, err)
}
