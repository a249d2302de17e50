// Package scoring calcula os pontos de um palpite a partir do resultado
// real da partida. É a única implementação da regra de pontuação: o worker
// de recálculo, o reconciliador e qualquer preview de cliente devem chamar
// este pacote ao invés de reimplementar a lógica de vencedor.
package scoring

// Resultado de uma partida sob a ótica de quem venceu.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeAway Outcome = "away"
	OutcomeTie  Outcome = "tie"
)

const (
	// Pontuação máxima por acerto exato do placar
	ExactScorePoints = 15
	// Base para acerto do vencedor, descontada pela distância do placar
	WinnerBasePoints = 10
)

// Winner determina o vencedor por comparação simples dos gols.
func Winner(home, away int) Outcome {
	switch {
	case home > away:
		return OutcomeHome
	case home < away:
		return OutcomeAway
	default:
		return OutcomeTie
	}
}

// Points calcula os pontos de um palpite.
//
// Regras, em ordem de prioridade:
//   - partida não finalizada (placar < 0) ou palpite ausente (nil): 0
//   - placar exato: 15
//   - vencedor correto: max(0, 10 - soma das distâncias dos gols)
//   - vencedor errado: 0
//
// Pura e total: nenhuma combinação de inteiros gera erro; palpite ausente
// é o único caso anulável.
func Points(homeActual, awayActual int, homeGuess, awayGuess *int) int {
	if homeActual < 0 || awayActual < 0 || homeGuess == nil || awayGuess == nil {
		return 0
	}

	gh, ga := *homeGuess, *awayGuess

	if gh == homeActual && ga == awayActual {
		return ExactScorePoints
	}

	if Winner(homeActual, awayActual) == Winner(gh, ga) {
		diff := abs(gh-homeActual) + abs(ga-awayActual)
		if pts := WinnerBasePoints - diff; pts > 0 {
			return pts
		}
		return 0
	}

	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
