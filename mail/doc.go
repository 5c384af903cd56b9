// Package mail renders account lifecycle messages and delivers them.
//
// [Sender] implements the engine's Mailer. Bodies come from embedded
// html/template files, so user supplied values are escaped. Delivery is
// delegated to a [Transport]:
//
//   - [SMTPTransport] for any SMTP relay
//   - [MailgunTransport] for the Mailgun HTTP API
//   - [LogTransport] for local development, which logs instead of sending
//
// Errors are returned to the engine, which records them and carries on.
package mail
