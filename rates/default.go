package rates

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/latepay/arrears/interest"
)

// DefaultSchedule returns the statutory late-payment rate schedule
// (reference rate + 5.5 p.p.), covering 2016-01-01 onward. The final
// interval is open-ended in practice; 2100-01-01 stands in for "until
// further notice". Seed data only: deployments load their own schedule
// from configuration when the statute moves again.
func DefaultSchedule() []interest.RateInterval {
	return []interest.RateInterval{
		statutory(2016, time.January, 1, 2020, time.March, 17, "7.00"),
		statutory(2020, time.March, 18, 2020, time.April, 8, "6.50"),
		statutory(2020, time.April, 9, 2020, time.May, 28, "6.00"),
		statutory(2020, time.May, 29, 2021, time.October, 6, "5.60"),
		statutory(2021, time.October, 7, 2021, time.November, 3, "6.00"),
		statutory(2021, time.November, 4, 2021, time.December, 7, "6.75"),
		statutory(2021, time.December, 8, 2022, time.January, 4, "7.25"),
		statutory(2022, time.January, 5, 2022, time.February, 8, "7.75"),
		statutory(2022, time.February, 9, 2022, time.March, 8, "8.25"),
		statutory(2022, time.March, 9, 2022, time.April, 5, "9.00"),
		statutory(2022, time.April, 6, 2022, time.May, 5, "10.00"),
		statutory(2022, time.May, 6, 2022, time.June, 8, "10.75"),
		statutory(2022, time.June, 9, 2022, time.July, 6, "11.50"),
		statutory(2022, time.July, 7, 2022, time.September, 7, "12.00"),
		statutory(2022, time.September, 8, 2023, time.September, 6, "12.25"),
		statutory(2023, time.September, 7, 2023, time.October, 3, "11.50"),
		statutory(2023, time.October, 4, 2024, time.June, 5, "11.25"),
		statutory(2024, time.June, 6, 2100, time.January, 1, "10.75"),
	}
}

func statutory(y1 int, m1 time.Month, d1, y2 int, m2 time.Month, d2 int, rate string) interest.RateInterval {
	return interest.RateInterval{
		Start: interest.NewDate(y1, m1, d1),
		End:   interest.NewDate(y2, m2, d2),
		Rate:  decimal.RequireFromString(rate),
	}
}
