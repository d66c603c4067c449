// Package i18n holds the localized text used when assembling evaluation
// prompts. Messages live in embedded TOML files, one per language.
package i18n
