package pptx

import "math"

// Length 长度，单位 EMU（English Metric Unit），OOXML 中所有坐标与尺寸都使用该单位
type Length int64

const (
	EMUPerInch  Length = 914400
	EMUPerPoint Length = 12700

	// emuPerPixel 图片未携带 DPI 时按 72 DPI 换算
	emuPerPixel Length = EMUPerInch / 72
)

// Inches 英寸转 EMU
func Inches(v float64) Length {
	return Length(math.Round(v * float64(EMUPerInch)))
}

// Pt 磅转 EMU
func Pt(v float64) Length {
	return Length(math.Round(v * float64(EMUPerPoint)))
}

// Inches 返回以英寸表示的长度
func (l Length) Inches() float64 {
	return float64(l) / float64(EMUPerInch)
}

// Pt 返回以磅表示的长度
func (l Length) Pt() float64 {
	return float64(l) / float64(EMUPerPoint)
}

// centipoints 字号在 DrawingML 中以 1/100 磅表示
func (l Length) centipoints() int64 {
	return int64(math.Round(l.Pt() * 100))
}
