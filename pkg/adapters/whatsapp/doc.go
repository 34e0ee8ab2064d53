/*
Package whatsapp adapts the WhatsApp Cloud API: it normalizes webhook payloads into
domain.IncomingMessage and delivers rendered envelopes as form-encoded requests.
*/
package whatsapp
