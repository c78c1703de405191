package cli

import (
	"fmt"

	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/status"
)

// Alert is a labelled one-line message with the tier that colors it.
type Alert struct {
	Label string
	Body  string
	Tier  status.Tier
}

// RiskLevel is the headline text of the lifestyle risk card.
func RiskLevel(t status.Tier) string {
	switch t {
	case status.DataMissing:
		return "DATA KOSONG"
	case status.Critical:
		return "RISIKO: TINGGI (FOMO)"
	case status.Warning:
		return "RISIKO: HATI-HATI"
	default:
		return "RISIKO: AMAN"
	}
}

// RiskScore is the score shown on the risk card; "--" without an income.
func RiskScore(s model.Snapshot, t status.Tier) string {
	if t == status.DataMissing {
		return "--"
	}
	return fmt.Sprintf("%d%%", s.LifestyleRiskScore)
}

// RiskMessage explains the headline risk tier.
func RiskMessage(s model.Snapshot, t status.Tier) string {
	wants := FormatRupiah(s.Realized.Wants)
	target := FormatRupiah(s.Targets.Wants)

	switch t {
	case status.DataMissing:
		return "Atur Pemasukan Bulanan di 'Anggaran & Transaksi' untuk mengaktifkan fitur ini."
	case status.Critical:
		return fmt.Sprintf("Anda telah melebihi anggaran Gaya Hidup! (%s / %s). Waspada FOMO.", wants, target)
	case status.Warning:
		return fmt.Sprintf("Anda hampir mencapai batas anggaran Gaya Hidup. Pengeluaran: %s dari %s.", wants, target)
	default:
		return fmt.Sprintf("Pengeluaran Gaya Hidup Anda (%s) masih jauh di bawah anggaran (%s). Bagus!", wants, target)
	}
}

// LifestyleAlert is the quick-alert banner for wants spending.
func LifestyleAlert(s model.Snapshot, t status.Tier) Alert {
	score := s.LifestyleRiskScore
	switch t {
	case status.DataMissing:
		return Alert{"Gaya Hidup", "Atur Pemasukan Bulanan Anda.", t}
	case status.Critical:
		return Alert{"Gaya Hidup (Boros)", fmt.Sprintf("Pengeluaran %d%% dari anggaran. Anda melebihi batas! Hati-hati FOMO.", score), t}
	case status.Warning:
		return Alert{"Gaya Hidup (Waspada)", fmt.Sprintf("Pengeluaran %d%% dari anggaran. Anda mendekati batas.", score), t}
	default:
		return Alert{"Gaya Hidup (Aman)", fmt.Sprintf("Pengeluaran %d%% dari anggaran. Pengelolaan Anda bagus!", score), t}
	}
}

// EmergencyAlert is the quick-alert banner for the emergency fund.
func EmergencyAlert(s model.Snapshot, t status.Tier) Alert {
	pct := FormatPercent(s.EmergencyRatio)
	total := FormatRupiah(s.AllTimeEmergencyTotal)
	target := FormatRupiah(s.Targets.EmergencyLifetime)

	switch t {
	case status.DataMissing:
		return Alert{"Dana Darurat", "Atur Pemasukan Bulanan Anda untuk menghitung target.", t}
	case status.Critical:
		return Alert{"Dana Darurat (Kritis)", fmt.Sprintf("Baru %s (%s) dari target %s. Prioritaskan!", pct, total, target), t}
	case status.Progress:
		return Alert{"Dana Darurat (Progres)", fmt.Sprintf("Sudah %s (%s) dari target %s. Terus menabung!", pct, total, target), t}
	default:
		return Alert{"Dana Darurat (Tercapai!)", fmt.Sprintf("%s (%s). Anda aman!", pct, total), t}
	}
}

// EmergencyStatus is the one-line status under the savings ring.
func EmergencyStatus(t status.Tier) string {
	switch t {
	case status.DataMissing:
		return `Atur Pemasukan Bulanan Anda di halaman "Anggaran & Transaksi" untuk memulai.`
	case status.Achieved:
		return "Selamat! Target dana darurat Anda telah terpenuhi."
	default:
		return "Target belum terpenuhi. Terus tingkatkan tabungan Anda!"
	}
}

// AnalysisPlaceholder is shown while Analysis has nothing to say.
const AnalysisPlaceholder = "Analisis akan muncul di sini setelah Anda memasukkan data Pemasukan dan Pengeluaran."

// Note is one line of the financial analysis.
type Note struct {
	Text string
	Tone status.Tier // Safe, Critical, or empty for neutral
}

// Analysis builds the financial analysis notes for the current month. It
// returns nil when there is neither income nor expense.
func Analysis(s model.Snapshot) []Note {
	r := s.Realized
	if r.Income.IsZero() && r.Expense.IsZero() {
		return nil
	}

	var notes []Note
	if r.Income.IsPositive() {
		notes = append(notes, Note{Text: fmt.Sprintf("Total Pemasukan bulan ini: %s.", FormatRupiah(r.Income))})
	}
	if r.CashBalance.IsPositive() {
		notes = append(notes, Note{
			Text: fmt.Sprintf("Selamat! Arus kas Anda Positif sebesar %s.", FormatRupiah(r.CashBalance)),
			Tone: status.Safe,
		})
	} else {
		notes = append(notes, Note{
			Text: fmt.Sprintf("Perhatian! Arus kas Anda Negatif sebesar %s.", FormatRupiah(r.CashBalance)),
			Tone: status.Critical,
		})
	}

	target := s.Targets.Wants
	if target.IsPositive() {
		if r.Wants.GreaterThan(target) {
			notes = append(notes, Note{
				Text: fmt.Sprintf("Pengeluaran Gaya Hidup (%s) telah melebihi anggaran (%s).", FormatRupiah(r.Wants), FormatRupiah(target)),
				Tone: status.Critical,
			})
		} else {
			notes = append(notes, Note{
				Text: fmt.Sprintf("Pengeluaran Gaya Hidup (%s) masih sesuai anggaran (%s).", FormatRupiah(r.Wants), FormatRupiah(target)),
			})
		}
	}
	return notes
}

// Tip is one piece of anti-FOMO advice.
type Tip struct {
	Title string
	Body  string
}

// TipsTitle and TipsIntro head the anti-FOMO tips.
const (
	TipsTitle = "Tips Mengatasi FOMO Keuangan"
	TipsIntro = "FOMO (Fear Of Missing Out) di bidang keuangan seringkali membuat kita mengambil keputusan impulsif " +
		"(seperti membeli barang yang sedang tren) yang merusak anggaran. Berikut beberapa tips:"
)

// Tips returns the anti-FOMO advice list.
func Tips() []Tip {
	return []Tip{
		{"Kenali Pemicu (Trigger)", "Apakah itu media sosial? Lingkaran pertemanan? Sadari apa yang membuat Anda merasa 'tertinggal'."},
		{"Terapkan Jeda 24 Jam", "Sebelum membeli barang 'Gaya Hidup' yang tidak direncanakan, tunggu 24 jam. Seringkali, keinginan itu akan mereda."},
		{"Fokus pada Tujuan Anda (Goals)", "Ingatkan diri Anda pada tujuan finansial jangka panjang (Dana Darurat, liburan, dll). Apakah pembelian ini membantunya?"},
		{"Anggarkan 'Uang Jajan'", "Alokasi 30% 'Gaya Hidup' Anda adalah untuk ini. Jika masih ada di anggaran, tidak apa-apa. Jika sudah habis, berarti tidak."},
		{"Unfollow & Mute", "Jika perlu, 'unfollow' akun-akun yang memicu Anda untuk boros. Kesehatan mental dan finansial Anda lebih penting."},
	}
}
