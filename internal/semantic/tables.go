package semantic

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule pairs a label with the pattern that selects it.
type Rule struct {
	Label   string
	Pattern *regexp.Regexp
}

// keywords compiles stems into one alternation anchored at a left word
// boundary, so "multa" also matches "multas". Stems starting with a symbol
// ("r$", "%") match anywhere.
func keywords(stems ...string) *regexp.Regexp {
	alts := make([]string, len(stems))
	for i, s := range stems {
		q := regexp.QuoteMeta(s)
		r, _ := utf8.DecodeRuneInString(s)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			q = `\b` + q
		}
		alts[i] = q
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}

// DocTypeRule infers a document type from a folded filename.
type DocTypeRule struct {
	Label    string
	Prefixes []string
	Contains []string
}

// Matches reports whether a folded filename belongs to the rule.
func (r DocTypeRule) Matches(name string) bool {
	for _, p := range r.Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, c := range r.Contains {
		if strings.Contains(name, c) {
			return true
		}
	}
	return false
}

// DocTypes is evaluated in order; the first matching rule wins.
var DocTypes = []DocTypeRule{
	{Label: "contrato", Prefixes: []string{"ctr", "ct-", "ct_"}, Contains: []string{"contrato", "contract"}},
	{Label: "politica", Prefixes: []string{"pol-", "pol_", "plt"}, Contains: []string{"politica", "policy"}},
	{Label: "manual", Prefixes: []string{"man-", "man_", "mn-"}, Contains: []string{"manual", "guia"}},
	{Label: "normativo", Prefixes: []string{"nrm", "nt-", "nt_"}, Contains: []string{"normativ", "norma"}},
	{Label: "comunicado", Prefixes: []string{"com-", "com_", "cmc"}, Contains: []string{"comunicado", "circular"}},
	{Label: "regulamento", Prefixes: []string{"reg-", "reg_", "rgt"}, Contains: []string{"regulamento", "regimento", "regulation"}},
}

// Categories are scored independently; ties keep the earlier entry.
var Categories = []Rule{
	{"financeiro", keywords("pagamento", "pagar", "valor", "reais", "r$", "multa", "juros", "boleto",
		"fatura", "custo", "orcamento", "mensalidade", "desconto", "reembolso", "financeir", "preco", "tarifa")},
	{"juridico", keywords("contrato", "contratante", "contratad", "clausula", "lei ", "artigo", "rescisao",
		"foro", "jurisdicao", "juridic", "legal", "litigio", "paragrafo")},
	{"operacional", keywords("procedimento", "processo", "operac", "fluxo", "sistema", "execucao", "etapa",
		"atividade", "entrega", "suporte", "infraestrutura", "manutencao", "logistic")},
	{"rh", keywords("colaborador", "funcionari", "empregad", "ferias", "salario", "beneficio", "admissao",
		"demissao", "jornada", "recursos humanos", "rh ")},
	{"academico", keywords("aluno", "estudante", "curso", "disciplina", "matricula", "professor", "docente",
		"semestre", "avaliac", "graduac", "aula", "academic", "formatura")},
	{"institucional", keywords("instituic", "missao", "visao", "valores", "governanca", "diretoria", "conselho",
		"reitoria", "institucional", "estatuto", "evento", "cerimonia")},
}

// Roles is evaluated in priority order; the first match wins.
var Roles = []Rule{
	{"risco", keywords("multa", "penalidade", "penaliza", "sancao", "sancoes", "risco", "infracao",
		"advertencia", "suspensao", "rescisao", "punic")},
	{"obrigacao", keywords("deve", "deverao", "devera", "obrigatori", "obrigac", "obriga", "compete",
		"responsabilidade", "responsavel", "cabera", "e necessario")},
	{"prazo", regexp.MustCompile(`\b(prazo|vencimento|data limite|ate o dia|dias uteis|dias corridos|vigencia|validade)|\b\d{1,2}/\d{1,2}(/\d{2,4})?\b`)},
	{"valor", keywords("r$", "reais", "valor", "preco", "custo", "percentual", "%", "taxa", "mensalidade", "tarifa")},
	{"definicao", keywords("entende-se", "define-se", "considera-se", "definic", "significa", "para fins de",
		"conceito", "denomina")},
	{"procedimento", keywords("procedimento", "passo", "etapa", "solicitar", "solicitac", "encaminhar",
		"preencher", "protocolo", "formulario", "fluxo", "requerimento")},
	{"regra", keywords("permitid", "proibid", "vedad", "autorizad", "nao pode", "pode", "regra")},
}

// RoleDefault is assigned when no role rule matches.
const RoleDefault = "informacao"

// Topics is evaluated in order; the first match wins.
var Topics = []Rule{
	{"data do evento", regexp.MustCompile(`\b(data|dia) d[aoe] (evento|cerimonia|formatura|colacao|solenidade)|\brealizad[oa]s? (no dia|em \d)`)},
	{"cronograma", keywords("cronograma", "programacao", "agenda", "horario")},
	{"local", regexp.MustCompile(`\b(local|endereco|auditorio|campus)\b`)},
	{"condicoes de pagamento", keywords("pagamento", "boleto", "parcela")},
	{"penalidades", keywords("multa", "penalidade", "sanc", "infrac")},
	{"prazos", keywords("prazo", "vencimento", "data limite", "ate o dia")},
	{"obrigacoes", keywords("obrigac", "dever", "responsabilidade")},
}

// IntentRoles maps query phrasing to the role a user is after.
var IntentRoles = []Rule{
	{"risco", keywords("multa", "penal", "sanc", "risco", "punic", "infrac", "advertencia")},
	{"prazo", keywords("prazo", "quando", "data", "vencimento", "ate quando")},
	{"valor", keywords("quanto", "valor", "preco", "custo", "r$", "reais", "taxa")},
	{"obrigacao", keywords("obrigac", "obrigatori", "deve", "dever", "responsab")},
	{"definicao", keywords("o que e", "o que significa", "defin", "conceito", "significa")},
	{"procedimento", keywords("como", "procedimento", "passo", "solicitar", "processo")},
	{"regra", keywords("pode", "permitid", "proibid", "vedad", "regra")},
}
