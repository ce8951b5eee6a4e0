package services

import (
	"time"
)

// RefillHearts applique la régénération par tranches de temps entières
// (HEART_REFILL_MINUTES). Fonction pure, identique pour le chemin paresseux
// (lecture de statut) et le balayage périodique, afin que les deux chemins
// soient toujours d'accord.
//
// Si aucune tranche complète ne s'est écoulée, lastRefillAt est renvoyé tel
// quel: un no-op ne doit jamais remettre l'horloge à zéro, sinon un client qui
// interroge souvent bloquerait la régénération indéfiniment.
//
// Sinon le compteur avance du nombre de tranches (plafonné à max) et l'horloge
// passe à now: le crédit partiel vers la tranche suivante est perdu, c'est une
// simplification assumée.
func RefillHearts(current int, lastRefillAt time.Time, max int, interval time.Duration, now time.Time) (int, time.Time) {
	if interval <= 0 {
		return current, lastRefillAt
	}

	elapsed := now.Sub(lastRefillAt)
	buckets := int(elapsed / interval)

	if buckets <= 0 {
		return current, lastRefillAt
	}

	hearts := current + buckets
	if hearts > max {
		hearts = max
	}

	return hearts, now
}

// NextRefillSeconds donne le temps restant avant la prochaine tranche (pour l'UI).
func NextRefillSeconds(lastRefillAt time.Time, interval time.Duration, now time.Time) int {
	if interval <= 0 {
		return 0
	}

	elapsed := now.Sub(lastRefillAt) % interval
	remaining := interval - elapsed
	return int(remaining / time.Second)
}
