// Package cli implements the fares-validator command-line interface.
//
// # Commands
//
// validate: Validate one or more feeds and print their diagnostics
//
//	fares-validator validate ./feed feed.zip s3://bucket/feeds/latest.zip
//	fares-validator validate -format github -fail-on-warning ./feed
//	fares-validator validate -store-driver sqlite3 -store-dsn runs.db ./feed
//
// A feed is a directory, a .zip archive or an s3:// URL. S3 access is
// configured through the FV_S3_* environment variables read by pkg/config.
// Without -config, a fares-validator.yaml in the working directory is used
// when present.
//
// watch: Re-validate a feed directory whenever one of its files changes
//
//	fares-validator watch -feed ./feed -debounce 2s
//
// schedule: Validate a feed on a cron schedule and record each run
//
//	fares-validator schedule -feed s3://bucket/feed.zip -cron "0 * * * *" \
//		-store-driver postgres -store-dsn "$DATABASE_URL"
//	fares-validator schedule -feed ./feed -run-once
//
// serve: Run the HTTP API configured from FV_* environment variables
//
//	FV_PORT=8080 FV_STORE_DRIVER=sqlite3 fares-validator serve
//
// codes: Print the diagnostic code catalog
//
//	fares-validator codes
//	fares-validator codes -format json
//
// # Exit status
//
// validate and schedule -run-once fail when error diagnostics were reported
// (disable with -fail-on-error=false) or, with -fail-on-warning, when
// warnings were reported.
package cli
