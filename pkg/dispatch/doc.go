// SPDX-License-Identifier: MPL-2.0

// Package dispatch is the module registry and execution pipeline.
//
// Execute runs five stages per invocation:
//
//  1. SEARCH: alias prefix lookup, candidates sorted by descending priority
//     (stable, so equal priorities keep registration order).
//  2. PRECONDITION: every candidate's chain is evaluated; if all fail, the
//     failure of the first candidate in search order is reported.
//  3. PARSE: remaining input is tokenized and converted with every resolved
//     type reader; ambiguous slots follow the multi-match policy.
//  4. SCORE: priority + 0.99 * mean(positional, variadic) top weights.
//  5. DISPATCH: only the top-scored command runs, blocking or detached.
//
// Every completed invocation is published to OnExecuted subscribers.
package dispatch
