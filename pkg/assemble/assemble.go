package assemble

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/tinyland-inc/dropgram/pkg/config"
	"github.com/tinyland-inc/dropgram/pkg/files"
	"github.com/tinyland-inc/dropgram/pkg/logger"
)

// Assembler builds API payloads for one target chat.
type Assembler struct {
	chatID telego.ChatID
	local  bool
}

// Result pairs a top-level record with its assembled payload.
type Result struct {
	Record  *files.Record
	Payload Payload
}

func New(targetChatID, handleFiles string) *Assembler {
	return &Assembler{
		chatID: ParseChatID(targetChatID),
		local:  handleFiles == config.HandleLocal,
	}
}

// ParseChatID interprets a configured chat identifier: numeric IDs address
// chats directly, anything else is treated as a channel username.
func ParseChatID(s string) telego.ChatID {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return tu.ID(id)
	}
	return tu.Username(s)
}

// Build assembles one payload per top-level record. A record whose body or
// caption cannot be read is skipped with an error log; the rest of the
// batch is unaffected.
func (a *Assembler) Build(records []*files.Record) []Result {
	out := make([]Result, 0, len(records))
	for _, rec := range records {
		payload, err := a.buildOne(rec)
		if err != nil {
			logger.ErrorCF("assemble", "Skipping message", map[string]any{
				"name":  rec.Name,
				"kind":  rec.Kind.String(),
				"error": err.Error(),
			})
			continue
		}
		out = append(out, Result{Record: rec, Payload: payload})
	}
	return out
}

func (a *Assembler) buildOne(rec *files.Record) (Payload, error) {
	if rec.Kind == files.KindText {
		return a.buildText(rec)
	}
	if rec.IsBundleHead() {
		return a.buildMediaGroup(rec)
	}
	return a.buildMedia(rec)
}

func (a *Assembler) buildText(rec *files.Record) (Payload, error) {
	body, err := os.ReadFile(rec.Path)
	if err != nil {
		return Payload{}, fmt.Errorf("reading message body: %w", err)
	}

	text := string(body)
	parseMode := ParseModeForExt(rec.Ext)
	if parseMode == telego.ModeMarkdownV2 {
		text = EscapeMarkdownV2(text)
	}

	return Payload{
		Route: RouteSendText,
		Text: &telego.SendMessageParams{
			ChatID:    a.chatID,
			Text:      text,
			ParseMode: parseMode,
		},
	}, nil
}

func (a *Assembler) buildMedia(rec *files.Record) (Payload, error) {
	caption, parseMode, err := a.caption(rec)
	if err != nil {
		return Payload{}, err
	}

	media := a.fileRef(rec.Path)
	thumb := a.thumbRef(rec)

	switch rec.Kind {
	case files.KindImage:
		// sendPhoto has no thumbnail field; the record may still carry one
		// for relocation purposes.
		return Payload{
			Route: RouteSendPhoto,
			Photo: &telego.SendPhotoParams{
				ChatID:    a.chatID,
				Photo:     media,
				Caption:   caption,
				ParseMode: parseMode,
			},
		}, nil
	case files.KindAudio:
		// Duration, performer and title are never computed.
		return Payload{
			Route: RouteSendAudio,
			Audio: &telego.SendAudioParams{
				ChatID:    a.chatID,
				Audio:     media,
				Thumbnail: thumb,
				Caption:   caption,
				ParseMode: parseMode,
			},
		}, nil
	case files.KindVideo:
		// Duration and dimensions are never computed.
		return Payload{
			Route: RouteSendVideo,
			Video: &telego.SendVideoParams{
				ChatID:    a.chatID,
				Video:     media,
				Thumbnail: thumb,
				Caption:   caption,
				ParseMode: parseMode,
			},
		}, nil
	case files.KindAnimation:
		return Payload{
			Route: RouteSendAnimation,
			Animation: &telego.SendAnimationParams{
				ChatID:    a.chatID,
				Animation: media,
				Thumbnail: thumb,
				Caption:   caption,
				ParseMode: parseMode,
			},
		}, nil
	default:
		return Payload{
			Route: RouteSendDocument,
			Document: &telego.SendDocumentParams{
				ChatID:    a.chatID,
				Document:  media,
				Thumbnail: thumb,
				Caption:   caption,
				ParseMode: parseMode,
			},
		}, nil
	}
}

func (a *Assembler) buildMediaGroup(head *files.Record) (Payload, error) {
	type indexedMedia struct {
		fine  int
		media telego.InputMedia
	}

	items := make([]indexedMedia, 0, len(head.BundleMembers))
	for _, member := range head.BundleMembers {
		item, err := a.buildGroupItem(member)
		if err != nil {
			return Payload{}, fmt.Errorf("bundle %s: %w", head.BundleKey, err)
		}
		items = append(items, indexedMedia{fine: member.BundleIndex, media: item})
	}

	// The media array is final only after sorting by the fine index; scan
	// order within a bundle carries no meaning.
	sort.SliceStable(items, func(i, j int) bool { return items[i].fine < items[j].fine })

	media := make([]telego.InputMedia, 0, len(items))
	for _, it := range items {
		media = append(media, it.media)
	}

	return Payload{
		Route: RouteSendMediaGroup,
		MediaGroup: &telego.SendMediaGroupParams{
			ChatID: a.chatID,
			Media:  media,
		},
	}, nil
}

func (a *Assembler) buildGroupItem(member *files.Record) (telego.InputMedia, error) {
	caption, parseMode, err := a.caption(member)
	if err != nil {
		return nil, err
	}

	media := a.fileRef(member.Path)
	thumb := a.thumbRef(member)

	switch member.Kind {
	case files.KindImage:
		return &telego.InputMediaPhoto{
			Type:      telego.MediaTypePhoto,
			Media:     media,
			Caption:   caption,
			ParseMode: parseMode,
		}, nil
	case files.KindAudio:
		return &telego.InputMediaAudio{
			Type:      telego.MediaTypeAudio,
			Media:     media,
			Thumbnail: thumb,
			Caption:   caption,
			ParseMode: parseMode,
		}, nil
	case files.KindVideo:
		return &telego.InputMediaVideo{
			Type:      telego.MediaTypeVideo,
			Media:     media,
			Thumbnail: thumb,
			Caption:   caption,
			ParseMode: parseMode,
		}, nil
	case files.KindAnimation:
		return &telego.InputMediaAnimation{
			Type:      telego.MediaTypeAnimation,
			Media:     media,
			Thumbnail: thumb,
			Caption:   caption,
			ParseMode: parseMode,
		}, nil
	default:
		return &telego.InputMediaDocument{
			Type:      telego.MediaTypeDocument,
			Media:     media,
			Thumbnail: thumb,
			Caption:   caption,
			ParseMode: parseMode,
		}, nil
	}
}

// caption reads and parse-mode-resolves the companion caption, if any.
func (a *Assembler) caption(rec *files.Record) (string, string, error) {
	if rec.Caption == nil {
		return "", "", nil
	}
	body, err := os.ReadFile(rec.Caption.Path)
	if err != nil {
		return "", "", fmt.Errorf("reading caption: %w", err)
	}

	caption := string(body)
	parseMode := ParseModeForExt(rec.Caption.Ext)
	if parseMode == telego.ModeMarkdownV2 {
		caption = EscapeMarkdownV2(caption)
	}
	return caption, parseMode, nil
}

// fileRef builds the media reference for a path: a file:// URL that the API
// server fetches itself, or a deferred local upload.
func (a *Assembler) fileRef(path string) telego.InputFile {
	if a.local {
		return telego.InputFile{File: newLazyFile(path)}
	}
	return tu.FileFromURL("file://" + path)
}

func (a *Assembler) thumbRef(rec *files.Record) *telego.InputFile {
	if rec.Thumbnail == nil {
		return nil
	}
	ref := a.fileRef(rec.Thumbnail.Path)
	return &ref
}
