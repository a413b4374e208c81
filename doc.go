// Package fa computes the foreign-asset schedule of equity compensation lots for
// one tax year. It is local-first: every market fact learned from a provider is
// written through to a single JSON cache file so that a later run needs no
// network access at all.
//
// The core pieces are:
//   - Cache: the persistent store of prices, day ranges, company profiles,
//     exchange rates and the country code mapping, saved after each write.
//   - Resolver: looks facts up in the Cache and falls back to a
//     MarketDataProvider or a RateProvider under a walk-back-in-time policy.
//   - Validate: reconciles vest lots with sale records and builds the lot
//     timelines.
//   - Engine: computes the initial, peak and closing values and the year's
//     sale proceeds of a lot, in INR.
//   - WriteSchedule: renders rows in the FA schedule CSV layout.
//
// Run ties these together the way the `facalc compute` command does.
package fa
