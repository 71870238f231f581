// Package services wraps the external systems EmoTune talks to: the music catalog, the emotion classifier
// and the SMTP relay used for reset codes.
//
// # Music Catalog
//
// [MusicCatalog] is the abstraction recommendation and search code depends on. [SpotifyService] implements it
// against the Spotify Web API using the client credentials flow; the [clientcredentials.Config] client fetches
// and refreshes the application token automatically. Requests share a [rate.Limiter].
//
// Spotify responses are converted to [models.Track]:
//   - multiple artists are joined with ", "
//   - the first album image becomes the album art
//   - tracks without a title or artist are dropped
//
// # Emotion Classifier
//
// [ClassifierService] posts an image as multipart form data and expects
//
//	{"emotion": "happy", "confidence": 0.93, "all_predictions": {...}}
//
// Labels are normalized with [models.ParseEmotion]; unknown labels are an error.
//
// # Mail
//
// [SMTPMailer] sends reset codes through gomail. [LogMailer] logs them instead and is used when no SMTP host
// is configured.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrMissingCredentials] : client id or secret not configured
//   - [shared.ErrAPIRequest] : non-2xx status or undecodable body
//   - [shared.ErrTrackNotFound] : the catalog answered 404
//   - [shared.ErrServiceUnavailable] : the remote could not be reached
package services
