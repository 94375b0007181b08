package handlers

import (
	"errors"

	"homedash/internal/repository"
	"homedash/internal/service"
)

// Messages shown on the HTML pages.
const (
	msgLoginFailed   = "Email ou mot de passe incorrect."
	msgEmailFirst    = "Entre ton email d'abord."
	msgResetSent     = "Email de réinitialisation envoyé (si le compte existe). Vérifie tes spams."
	msgNotFound      = "Aucune mesure trouvée avant cette date."
	msgLoadFailed    = "Erreur de chargement des données."
	msgGenericFailed = "Erreur, réessaie plus tard."
)

// userMessage turns a service error into the sentence shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidHomeID):
		return "HOME_ID invalide. Utilise 3-32 caractères: lettres/chiffres/_/-"
	case errors.Is(err, service.ErrHomeAlreadyBound):
		return "Ce compte est déjà associé à une maison."
	case errors.Is(err, service.ErrHomeNotBound):
		return "Associe d'abord une maison (HOME_ID)."
	case errors.Is(err, service.ErrInvalidLogPeriod):
		return "Fréquence invalide."
	case errors.Is(err, service.ErrEmptySearch):
		return "Choisis une date et une heure."
	case errors.Is(err, service.ErrInvalidSearch):
		return "Date/heure invalide."
	case errors.Is(err, service.ErrBusy):
		return "Opération déjà en cours."
	case errors.Is(err, service.ErrInvalidCredentials):
		return msgLoginFailed
	case errors.Is(err, service.ErrInvalidEmail):
		return "Email invalide."
	case errors.Is(err, service.ErrWeakPassword):
		return "Mot de passe trop court (6 caractères minimum)."
	case errors.Is(err, repository.ErrEmailTaken):
		return "Un compte existe déjà avec cet email."
	default:
		return msgGenericFailed
	}
}
