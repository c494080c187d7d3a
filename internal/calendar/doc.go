// Package calendar provides a client for the Google Calendar API used to
// mirror task deadlines as calendar events.
//
// Tasks with due dates become all-day events on the primary calendar with an
// email reminder one day before and a popup one hour before. Authentication
// uses the per-account OAuth2 token system shared by the other Google
// service clients.
package calendar
