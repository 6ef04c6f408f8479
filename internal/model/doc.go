// Package model defines the data structures shared by the crawler, the report
// writers and the history database.
//
// The main type is RunReport, the serializable outcome of one crawl run.
// It lives in its own package so that crawler, report and database can all
// use it without importing each other.
package model
