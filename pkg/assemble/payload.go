// Package assemble turns classified file records into chat API payloads:
// one payload per logical message, with captions resolved from companion
// files and bundles collapsed into a single grouped-media envelope.
package assemble

import "github.com/mymmrac/telego"

// Route discriminates which API method a payload targets.
type Route string

const (
	RouteSendText       Route = "send-text"
	RouteSendPhoto      Route = "send-photo"
	RouteSendAudio      Route = "send-audio"
	RouteSendDocument   Route = "send-document"
	RouteSendVideo      Route = "send-video"
	RouteSendAnimation  Route = "send-animation"
	RouteSendMediaGroup Route = "send-media-group"
)

// Payload is a tagged union over the API's send parameter shapes. Exactly
// one of the pointer fields is set, matching Route.
type Payload struct {
	Route Route

	Text       *telego.SendMessageParams
	Photo      *telego.SendPhotoParams
	Audio      *telego.SendAudioParams
	Document   *telego.SendDocumentParams
	Video      *telego.SendVideoParams
	Animation  *telego.SendAnimationParams
	MediaGroup *telego.SendMediaGroupParams
}
